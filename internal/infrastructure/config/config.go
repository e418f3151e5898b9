package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the RoomSense gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Room      string          `yaml:"room"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	BLE       BLEConfig       `yaml:"ble"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// BLEConfig contains Bluetooth discovery settings.
type BLEConfig struct {
	// ScanWindow is the discovery duration for a full device scan (milliseconds).
	ScanWindow int `yaml:"scan_window"`

	// RescanWindow is the short discovery duration used to refresh the
	// adapter's device cache before a connect attempt (milliseconds).
	RescanWindow int `yaml:"rescan_window"`
}

// TelemetryConfig selects and configures the time-series sink.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend selects the sink implementation: "influxdb" or "victoriametrics".
	Backend string `yaml:"backend"`

	InfluxDB        InfluxDBConfig        `yaml:"influxdb"`
	VictoriaMetrics VictoriaMetricsConfig `yaml:"victoriametrics"`
}

// InfluxDBConfig contains InfluxDB v2 connection settings.
type InfluxDBConfig struct {
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// VictoriaMetricsConfig contains VictoriaMetrics connection settings.
type VictoriaMetricsConfig struct {
	URL           string `yaml:"url"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// GatewayConfig tunes the messaging-protocol surface of the gateway.
// The source deployments differ in response verbosity and last-will shape;
// both are consolidated here behind configuration.
type GatewayConfig struct {
	// ResponseStyle selects the response payload shape: "verbose" publishes
	// full JSON response objects, "terse" publishes minimal payloads.
	ResponseStyle string `yaml:"response_style"`

	// LastWillFormat selects the LWT payload shape: "json" or "terse".
	LastWillFormat string `yaml:"lastwill_format"`

	// ReconnectOnStart attempts to reconnect every known device at startup.
	ReconnectOnStart bool `yaml:"reconnect_on_start"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Response style values for GatewayConfig.ResponseStyle.
const (
	ResponseStyleVerbose = "verbose"
	ResponseStyleTerse   = "terse"
)

// Telemetry backend values for TelemetryConfig.Backend.
const (
	TelemetryBackendInfluxDB        = "influxdb"
	TelemetryBackendVictoriaMetrics = "victoriametrics"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ROOMSENSE_SECTION_KEY
// For example: ROOMSENSE_ROOM, ROOMSENSE_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Room: "0",
		Database: DatabaseConfig{
			Path:        "./data/roomsense.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
				// Random suffix so two gateways in adjacent rooms never
				// steal each other's broker session.
				ClientID: "roomsense-" + uuid.NewString()[:8],
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		BLE: BLEConfig{
			ScanWindow:   3000,
			RescanWindow: 500,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Backend: TelemetryBackendInfluxDB,
			InfluxDB: InfluxDBConfig{
				URL:           "http://localhost:8086",
				Bucket:        "sensor_data",
				BatchSize:     100,
				FlushInterval: 10,
			},
			VictoriaMetrics: VictoriaMetricsConfig{
				URL:           "http://localhost:8428",
				BatchSize:     1000,
				FlushInterval: 1,
			},
		},
		Gateway: GatewayConfig{
			ResponseStyle:    ResponseStyleVerbose,
			LastWillFormat:   "json",
			ReconnectOnStart: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ROOMSENSE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROOMSENSE_ROOM"); v != "" {
		cfg.Room = v
	}

	// Database
	if v := os.Getenv("ROOMSENSE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ROOMSENSE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ROOMSENSE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ROOMSENSE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Telemetry
	if v := os.Getenv("ROOMSENSE_INFLUXDB_TOKEN"); v != "" {
		cfg.Telemetry.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Room == "" {
		errs = append(errs, "room is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if c.BLE.ScanWindow <= 0 {
		errs = append(errs, "ble.scan_window must be positive")
	}
	if c.BLE.RescanWindow <= 0 {
		errs = append(errs, "ble.rescan_window must be positive")
	}

	switch c.Gateway.ResponseStyle {
	case ResponseStyleVerbose, ResponseStyleTerse:
	default:
		errs = append(errs, `gateway.response_style must be "verbose" or "terse"`)
	}

	switch c.Gateway.LastWillFormat {
	case "json", "terse":
	default:
		errs = append(errs, `gateway.lastwill_format must be "json" or "terse"`)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Backend {
		case TelemetryBackendInfluxDB, TelemetryBackendVictoriaMetrics:
		default:
			errs = append(errs, `telemetry.backend must be "influxdb" or "victoriametrics"`)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ScanWindow returns the full-scan discovery duration.
func (c *Config) ScanWindow() time.Duration {
	return time.Duration(c.BLE.ScanWindow) * time.Millisecond
}

// RescanWindow returns the pre-connect rescan duration.
func (c *Config) RescanWindow() time.Duration {
	return time.Duration(c.BLE.RescanWindow) * time.Millisecond
}
