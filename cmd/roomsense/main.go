// RoomSense Gateway - BLE environmental sensing over MQTT
//
// This is the main entry point for a room gateway: it bridges Bluetooth
// Low Energy environmental sensors in one physical room to a cloud MQTT
// broker, persisting device history to SQLite and sensor readings to a
// time-series backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/roomsense/gateway/migrations"

	"github.com/roomsense/gateway/internal/ble"
	"github.com/roomsense/gateway/internal/gateway"
	"github.com/roomsense/gateway/internal/infrastructure/config"
	"github.com/roomsense/gateway/internal/infrastructure/database"
	"github.com/roomsense/gateway/internal/infrastructure/influxdb"
	"github.com/roomsense/gateway/internal/infrastructure/logging"
	"github.com/roomsense/gateway/internal/infrastructure/mqtt"
	"github.com/roomsense/gateway/internal/infrastructure/tsdb"
	"github.com/roomsense/gateway/internal/registry"
	"github.com/roomsense/gateway/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Secrets (broker password, InfluxDB token) live in .env on the
	// device. A missing file just means the environment is set some
	// other way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RoomSense gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "room", cfg.Room)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and bring the schema up to date
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	repo := registry.NewSQLiteRepository(db.DB)

	// Any connected flag surviving the previous run is stale.
	if err := repo.ResetConnections(ctx); err != nil {
		return fmt.Errorf("resetting connection flags: %w", err)
	}

	// Connect to the broker. The last will announces this room offline
	// if the gateway dies ungracefully.
	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.Presence{
		Room:       cfg.Room,
		WillFormat: cfg.Gateway.LastWillFormat,
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Pick the telemetry sink
	sink, err := connectTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		sink.Flush()
		if closeErr := sink.Close(); closeErr != nil {
			log.Error("error closing telemetry sink", "error", closeErr)
		}
	}()

	// Power on the Bluetooth adapter
	adapter := ble.NewBlueZAdapter()
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enabling bluetooth adapter: %w", err)
	}
	log.Info("bluetooth adapter enabled")

	// Start the gateway core
	gw, err := gateway.New(gateway.Options{
		Room:          cfg.Room,
		MQTT:          mqttClient,
		Adapter:       adapter,
		Registry:      repo,
		Telemetry:     sink,
		ScanWindow:    cfg.ScanWindow(),
		RescanWindow:  cfg.RescanWindow(),
		ResponseStyle: cfg.Gateway.ResponseStyle,
		QoS:           byte(cfg.MQTT.QoS),
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	if err := gw.Start(); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	defer func() {
		log.Info("stopping gateway")
		gw.Stop()
	}()

	if cfg.Gateway.ReconnectOnStart {
		// Re-establish sessions in the background; a sensor that is
		// out of range must not delay startup.
		go gw.ReconnectKnown(ctx)
	}

	if err := healthCheck(ctx, db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred cleanup runs in reverse order:
	// 1. Gateway (disconnects every BLE session)
	// 2. Telemetry sink
	// 3. MQTT (publishes graceful offline presence)
	// 4. Database

	return nil
}

// connectTelemetry connects the configured time-series backend, or returns
// a no-op sink when telemetry is disabled.
func connectTelemetry(ctx context.Context, cfg *config.Config, log *logging.Logger) (telemetry.Sink, error) {
	if !cfg.Telemetry.Enabled {
		log.Info("telemetry disabled")
		return telemetry.Nop{}, nil
	}

	switch cfg.Telemetry.Backend {
	case config.TelemetryBackendInfluxDB:
		client, err := influxdb.Connect(cfg.Telemetry.InfluxDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("telemetry backend connected",
			"backend", cfg.Telemetry.Backend,
			"url", cfg.Telemetry.InfluxDB.URL,
			"bucket", cfg.Telemetry.InfluxDB.Bucket,
		)
		return client, nil

	case config.TelemetryBackendVictoriaMetrics:
		client, err := tsdb.Connect(ctx, cfg.Telemetry.VictoriaMetrics)
		if err != nil {
			return nil, fmt.Errorf("connecting to VictoriaMetrics: %w", err)
		}
		client.SetOnError(func(err error) {
			log.Error("VictoriaMetrics write error", "error", err)
		})
		log.Info("telemetry backend connected",
			"backend", cfg.Telemetry.Backend,
			"url", cfg.Telemetry.VictoriaMetrics.URL,
		)
		return client, nil

	default:
		// Config validation rejects anything else before we get here.
		return nil, fmt.Errorf("unknown telemetry backend: %q", cfg.Telemetry.Backend)
	}
}

// getConfigPath returns the configuration file path.
// Uses ROOMSENSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ROOMSENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections are healthy before
// the gateway reports ready.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}
