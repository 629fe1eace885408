package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the XG parameter service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	MIDI      MIDIConfig      `yaml:"midi"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MCP       MCPConfig       `yaml:"mcp"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Fanout    FanoutConfig    `yaml:"fanout"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig describes the XG tone generator being edited.
type DeviceConfig struct {
	// ID is the XG device number (0-15) used in every sysex message.
	ID int `yaml:"id"`

	// Name is a human label for logs and MQTT payloads.
	Name string `yaml:"name"`

	// Packs are YAML descriptor packs merged into the built-in tables,
	// in order.
	Packs []string `yaml:"packs"`

	// Parts is the number of multi parts to register (1-64).
	Parts int `yaml:"parts"`

	// DrumSetups is the number of drum setups to register (1-16).
	DrumSetups int `yaml:"drum_setups"`
}

// MIDIConfig contains the MIDI port settings for the device bridge.
type MIDIConfig struct {
	Enabled bool   `yaml:"enabled"`
	InPort  string `yaml:"in_port"`
	OutPort string `yaml:"out_port"`

	// SyncOnStart sends XG System On and the full state to the device
	// when the bridge starts.
	SyncOnStart bool `yaml:"sync_on_start"`

	// RequestOnStart asks the device for every parameter when the bridge
	// starts, so the registry follows the device instead.
	RequestOnStart bool `yaml:"request_on_start"`

	// SendInterval throttles outgoing messages (milliseconds). XG devices
	// drop data sent faster than they can process it.
	SendInterval int `yaml:"send_interval"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
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
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MCPConfig contains the Model Context Protocol server settings. When
// enabled the server owns stdin and stdout, so logging must go to stderr.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// SnapshotConfig controls automatic snapshot handling.
type SnapshotConfig struct {
	// Autoload is the snapshot applied at startup, if set.
	Autoload string `yaml:"autoload"`

	// AutosaveOnShutdown saves the current state under Autosave when the
	// service stops.
	AutosaveOnShutdown bool   `yaml:"autosave_on_shutdown"`
	Autosave           string `yaml:"autosave"`
}

// FanoutConfig sizes the state event queue between the registry and the
// sinks.
type FanoutConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: XGPARAM_SECTION_KEY
// For example: XGPARAM_DATABASE_PATH, XGPARAM_MIDI_OUT_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
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
		Device: DeviceConfig{
			ID:         0,
			Name:       "xg",
			Parts:      16,
			DrumSetups: 2,
		},
		MIDI: MIDIConfig{
			SendInterval: 2,
		},
		Database: DatabaseConfig{
			Path:        "./data/xgparam.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "xgparamd",
			},
			QoS:         1,
			TopicPrefix: "xgparam",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8480,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MCP: MCPConfig{
			Name: "xgparam",
		},
		Snapshot: SnapshotConfig{
			Autosave: "autosave",
		},
		Fanout: FanoutConfig{
			QueueSize: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: XGPARAM_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v, ok := envInt("XGPARAM_DEVICE_ID"); ok {
		cfg.Device.ID = v
	}

	// MIDI
	if v := os.Getenv("XGPARAM_MIDI_IN_PORT"); v != "" {
		cfg.MIDI.InPort = v
	}
	if v := os.Getenv("XGPARAM_MIDI_OUT_PORT"); v != "" {
		cfg.MIDI.OutPort = v
	}

	// Database
	if v := os.Getenv("XGPARAM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("XGPARAM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("XGPARAM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("XGPARAM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("XGPARAM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("XGPARAM_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v, ok := envInt("XGPARAM_API_PORT"); ok {
		cfg.API.Port = v
	}

	// Logging
	if v := os.Getenv("XGPARAM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.ID < 0 || c.Device.ID > 15 {
		errs = append(errs, "device.id must be between 0 and 15")
	}
	if c.Device.Parts < 1 || c.Device.Parts > 64 {
		errs = append(errs, "device.parts must be between 1 and 64")
	}
	if c.Device.DrumSetups < 1 || c.Device.DrumSetups > 16 {
		errs = append(errs, "device.drum_setups must be between 1 and 16")
	}

	// MIDI validation
	if c.MIDI.Enabled && c.MIDI.OutPort == "" {
		errs = append(errs, "midi.out_port is required when midi is enabled")
	}
	if c.MIDI.SendInterval < 0 {
		errs = append(errs, "midi.send_interval must not be negative")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Logging validation. The MCP server speaks on stdout.
	if c.MCP.Enabled && c.Logging.Output == "stdout" {
		errs = append(errs, "logging.output must be stderr when mcp is enabled")
	}

	if c.Snapshot.AutosaveOnShutdown && c.Snapshot.Autosave == "" {
		errs = append(errs, "snapshot.autosave is required when autosave_on_shutdown is set")
	}

	if c.Fanout.QueueSize < 1 {
		errs = append(errs, "fanout.queue_size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetSendInterval returns the MIDI send throttle as a Duration.
func (c *Config) GetSendInterval() time.Duration {
	return time.Duration(c.MIDI.SendInterval) * time.Millisecond
}

// DeviceID returns the device number as a sysex device byte.
func (c *Config) DeviceID() uint8 {
	return uint8(c.Device.ID & 0x0F) //nolint:gosec // validated to 0-15
}
