package registry

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the gateway schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			device_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			mac_address TEXT NOT NULL UNIQUE,
			device_name TEXT NOT NULL,
			dt_added    TEXT NOT NULL,
			connected   INTEGER NOT NULL DEFAULT 0
		) STRICT;
		CREATE TABLE device_activity (
			activity_id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id   INTEGER NOT NULL REFERENCES devices(device_id),
			activity    TEXT NOT NULL,
			data        TEXT,
			timestamp   TEXT NOT NULL
		) STRICT;
		CREATE INDEX idx_device_activity_device ON device_activity(device_id);
		CREATE INDEX idx_devices_connected ON devices(connected);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

const (
	testMAC  = "AA:BB:CC:DD:EE:FF"
	testName = "window-sensor"
)

func TestRecordActivity_FirstContactCreatesDevice(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	device, err := repo.RecordActivity(ctx, testMAC, testName, ActivityConnect, "")
	if err != nil {
		t.Fatalf("RecordActivity() error = %v", err)
	}

	if device.ID == 0 {
		t.Error("device.ID = 0, want assigned id")
	}
	if device.MAC != testMAC {
		t.Errorf("device.MAC = %q, want %q", device.MAC, testMAC)
	}
	if device.Name != testName {
		t.Errorf("device.Name = %q, want %q", device.Name, testName)
	}
	if !device.Connected {
		t.Error("device.Connected = false after connect activity")
	}
	if device.FirstSeen.IsZero() {
		t.Error("device.FirstSeen is zero")
	}

	// The device must be findable and in the same state.
	found, err := repo.FindByMAC(ctx, testMAC)
	if err != nil {
		t.Fatalf("FindByMAC() error = %v", err)
	}
	if !found.Connected {
		t.Error("FindByMAC().Connected = false, want true")
	}
}

func TestRecordActivity_ConnectDisconnectCycle(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.RecordActivity(ctx, testMAC, testName, ActivityConnect, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}
	device, err := repo.RecordActivity(ctx, testMAC, testName, ActivityDisconnect, "")
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	if device.Connected {
		t.Error("device.Connected = true after disconnect activity")
	}

	activities, err := repo.ListActivity(ctx, testMAC, 0)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("len(activities) = %d, want 2", len(activities))
	}
	// Newest first.
	if activities[0].Kind != ActivityDisconnect {
		t.Errorf("activities[0].Kind = %q, want disconnect", activities[0].Kind)
	}
	if activities[1].Kind != ActivityConnect {
		t.Errorf("activities[1].Kind = %q, want connect", activities[1].Kind)
	}
}

func TestRecordActivity_IOKindsDoNotTouchConnected(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.RecordActivity(ctx, testMAC, testName, ActivityConnect, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, kind := range []ActivityKind{ActivityRead, ActivityWrite, ActivityNotifyOn, ActivityNotifyOff} {
		device, err := repo.RecordActivity(ctx, testMAC, "", kind, "2A6E")
		if err != nil {
			t.Fatalf("RecordActivity(%s) error = %v", kind, err)
		}
		if !device.Connected {
			t.Errorf("device.Connected = false after %s, want true", kind)
		}
	}

	activities, err := repo.ListActivity(ctx, testMAC, 0)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(activities) != 5 {
		t.Errorf("len(activities) = %d, want 5", len(activities))
	}
	if activities[0].Data != "2A6E" {
		t.Errorf("activities[0].Data = %q, want %q", activities[0].Data, "2A6E")
	}
}

func TestRecordActivity_NameUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.RecordActivity(ctx, testMAC, "old-name", ActivityConnect, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Empty name keeps the recorded one.
	device, err := repo.RecordActivity(ctx, testMAC, "", ActivityRead, "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if device.Name != "old-name" {
		t.Errorf("Name = %q after empty-name activity, want old-name", device.Name)
	}

	// A new advertised name supersedes it.
	device, err = repo.RecordActivity(ctx, testMAC, "new-name", ActivityConnect, "")
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if device.Name != "new-name" {
		t.Errorf("Name = %q, want new-name", device.Name)
	}
}

func TestRecordActivity_InvalidKind(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.RecordActivity(context.Background(), testMAC, testName, "reboot", "")
	if !errors.Is(err, ErrInvalidActivity) {
		t.Errorf("RecordActivity() error = %v, want ErrInvalidActivity", err)
	}

	// Nothing should have been persisted.
	if _, err := repo.FindByMAC(context.Background(), testMAC); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("FindByMAC() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestFindByMAC_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.FindByMAC(context.Background(), "00:00:00:00:00:00")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("FindByMAC() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.RecordActivity(ctx, "AA:BB:CC:DD:EE:01", "alpha", ActivityConnect, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordActivity(ctx, "AA:BB:CC:DD:EE:02", "beta", ActivityConnect, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordActivity(ctx, "AA:BB:CC:DD:EE:02", "beta", ActivityDisconnect, ""); err != nil {
		t.Fatal(err)
	}

	all, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	connected, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("List(connected) error = %v", err)
	}
	if len(connected) != 1 {
		t.Fatalf("len(connected) = %d, want 1", len(connected))
	}
	if connected[0].Name != "alpha" {
		t.Errorf("connected[0].Name = %q, want alpha", connected[0].Name)
	}
}

func TestResetConnections(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.RecordActivity(ctx, "AA:BB:CC:DD:EE:01", "alpha", ActivityConnect, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordActivity(ctx, "AA:BB:CC:DD:EE:02", "beta", ActivityConnect, ""); err != nil {
		t.Fatal(err)
	}

	if err := repo.ResetConnections(ctx); err != nil {
		t.Fatalf("ResetConnections() error = %v", err)
	}

	connected, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("List(connected) error = %v", err)
	}
	if len(connected) != 0 {
		t.Errorf("len(connected) = %d after reset, want 0", len(connected))
	}

	// Devices themselves survive the reset.
	all, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
}

func TestListActivity_Limit(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.RecordActivity(ctx, testMAC, testName, ActivityRead, "2A6E"); err != nil {
			t.Fatal(err)
		}
	}

	activities, err := repo.ListActivity(ctx, testMAC, 3)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(activities) != 3 {
		t.Errorf("len(activities) = %d, want 3", len(activities))
	}
}

func TestListActivity_UnknownDevice(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.ListActivity(context.Background(), "00:00:00:00:00:00", 0)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("ListActivity() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRecordActivity_ConcurrentSameDevice(t *testing.T) {
	db := setupTestDB(t)
	// Single connection: concurrent writers on :memory: otherwise race on
	// table locks the same way the production WAL config serialises them.
	db.SetMaxOpenConns(1)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.RecordActivity(ctx, testMAC, testName, ActivityRead, "2A6E"); err != nil {
				t.Errorf("RecordActivity() error = %v", err)
			}
		}()
	}
	wg.Wait()

	activities, err := repo.ListActivity(ctx, testMAC, 0)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if len(activities) != 8 {
		t.Errorf("len(activities) = %d, want 8", len(activities))
	}

	// Exactly one device row despite concurrent first contact.
	all, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(devices) = %d, want 1", len(all))
	}
}
