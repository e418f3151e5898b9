package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// FindByMAC retrieves a device by its hardware address.
	// Returns ErrDeviceNotFound if the device has never been recorded.
	FindByMAC(ctx context.Context, mac string) (*Device, error)

	// List retrieves all known devices, or only the currently connected
	// ones when connectedOnly is set.
	List(ctx context.Context, connectedOnly bool) ([]Device, error)

	// RecordActivity appends an activity entry for a device in a single
	// transaction: the device row is created on first contact, the
	// connected flag follows connect/disconnect kinds, and the activity
	// row is inserted. Returns the device's post-transaction state.
	RecordActivity(ctx context.Context, mac, name string, kind ActivityKind, data string) (*Device, error)

	// ListActivity retrieves the most recent activity entries for a
	// device, newest first. limit <= 0 means no limit.
	ListActivity(ctx context.Context, mac string, limit int) ([]Activity, error)

	// ResetConnections marks every device as disconnected. Called at
	// startup: any connected flag surviving a crash is stale.
	ResetConnections(ctx context.Context) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the schema
// migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// FindByMAC retrieves a device by its hardware address.
func (r *SQLiteRepository) FindByMAC(ctx context.Context, mac string) (*Device, error) {
	query := `
		SELECT device_id, mac_address, device_name, dt_added, connected
		FROM devices
		WHERE mac_address = ?`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, mac))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by mac: %w", err)
	}
	return device, nil
}

// List retrieves all known devices, optionally filtered to connected ones.
func (r *SQLiteRepository) List(ctx context.Context, connectedOnly bool) ([]Device, error) {
	query := `
		SELECT device_id, mac_address, device_name, dt_added, connected
		FROM devices`
	if connectedOnly {
		query += `
		WHERE connected = 1`
	}
	query += `
		ORDER BY device_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// RecordActivity appends an activity entry, creating the device row on
// first contact and updating the connected flag for connect/disconnect.
//
// The whole operation is one transaction so an observer never sees a
// connect activity without the matching connected flag, or an activity
// row pointing at a device that does not exist yet.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, mac, name string, kind ActivityKind, data string) (*Device, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActivity, kind)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()

	device, err := scanDevice(tx.QueryRowContext(ctx, `
		SELECT device_id, mac_address, device_name, dt_added, connected
		FROM devices
		WHERE mac_address = ?`, mac))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result, insErr := tx.ExecContext(ctx, `
			INSERT INTO devices (mac_address, device_name, dt_added, connected)
			VALUES (?, ?, ?, 0)`,
			mac, name, now.Format(time.RFC3339))
		if insErr != nil {
			return nil, fmt.Errorf("inserting device: %w", insErr)
		}
		id, insErr := result.LastInsertId()
		if insErr != nil {
			return nil, fmt.Errorf("reading device id: %w", insErr)
		}
		device = &Device{ID: id, MAC: mac, Name: name, FirstSeen: now}
	case err != nil:
		return nil, fmt.Errorf("querying device by mac: %w", err)
	default:
		// Re-advertised names supersede what we recorded at first contact.
		if name != "" && name != device.Name {
			if _, updErr := tx.ExecContext(ctx,
				`UPDATE devices SET device_name = ? WHERE device_id = ?`,
				name, device.ID); updErr != nil {
				return nil, fmt.Errorf("updating device name: %w", updErr)
			}
			device.Name = name
		}
	}

	switch kind {
	case ActivityConnect:
		device.Connected = true
	case ActivityDisconnect:
		device.Connected = false
	}
	if kind == ActivityConnect || kind == ActivityDisconnect {
		if _, err := tx.ExecContext(ctx,
			`UPDATE devices SET connected = ? WHERE device_id = ?`,
			boolToInt(device.Connected), device.ID); err != nil {
			return nil, fmt.Errorf("updating connected flag: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO device_activity (device_id, activity, data, timestamp)
		VALUES (?, ?, ?, ?)`,
		device.ID, string(kind), nullableString(data), now.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing activity: %w", err)
	}

	return device, nil
}

// ListActivity retrieves recent activity for a device, newest first.
func (r *SQLiteRepository) ListActivity(ctx context.Context, mac string, limit int) ([]Activity, error) {
	device, err := r.FindByMAC(ctx, mac)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT activity_id, device_id, activity, data, timestamp
		FROM device_activity
		WHERE device_id = ?
		ORDER BY activity_id DESC`
	args := []any{device.ID}
	if limit > 0 {
		query += `
		LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		var data sql.NullString
		var ts string
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Kind, &data, &ts); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		a.Data = data.String
		a.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing activity timestamp: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}

	return activities, nil
}

// ResetConnections marks every device as disconnected.
func (r *SQLiteRepository) ResetConnections(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE devices SET connected = 0 WHERE connected = 1`); err != nil {
		return fmt.Errorf("resetting connections: %w", err)
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var dtAdded string
	var connected int

	if err := scanner.Scan(&d.ID, &d.MAC, &d.Name, &dtAdded, &connected); err != nil {
		return nil, err
	}

	var err error
	d.FirstSeen, err = time.Parse(time.RFC3339, dtAdded)
	if err != nil {
		return nil, fmt.Errorf("parsing dt_added: %w", err)
	}
	d.Connected = connected != 0

	return &d, nil
}

// nullableString returns a sql.NullString for optional strings.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
