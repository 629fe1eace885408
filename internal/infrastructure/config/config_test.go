package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  id: 1
  name: "mu100"
  packs:
    - "packs/mu100.yaml"
midi:
  enabled: true
  out_port: "UM-ONE"
  in_port: "UM-ONE"
  sync_on_start: true
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DeviceID() != 1 {
		t.Errorf("DeviceID() = %d, want 1", cfg.DeviceID())
	}

	if len(cfg.Device.Packs) != 1 || cfg.Device.Packs[0] != "packs/mu100.yaml" {
		t.Errorf("Device.Packs = %v", cfg.Device.Packs)
	}

	if !cfg.MIDI.SyncOnStart || cfg.MIDI.OutPort != "UM-ONE" {
		t.Errorf("MIDI = %+v", cfg.MIDI)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	// Unset fields keep their defaults.
	if cfg.MQTT.TopicPrefix != "xgparam" {
		t.Errorf("MQTT.TopicPrefix = %q, want default %q", cfg.MQTT.TopicPrefix, "xgparam")
	}
	if cfg.Device.Parts != 16 {
		t.Errorf("Device.Parts = %d, want default 16", cfg.Device.Parts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
device:
  id: 16
midi:
  enabled: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}

	// Every problem is reported at once.
	for _, want := range []string{"device.id", "midi.out_port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "device id too high", modify: func(c *Config) { c.Device.ID = 16 }, wantErr: true},
		{name: "negative device id", modify: func(c *Config) { c.Device.ID = -1 }, wantErr: true},
		{name: "no parts", modify: func(c *Config) { c.Device.Parts = 0 }, wantErr: true},
		{name: "too many drum setups", modify: func(c *Config) { c.Device.DrumSetups = 17 }, wantErr: true},
		{name: "midi without out port", modify: func(c *Config) { c.MIDI.Enabled = true }, wantErr: true},
		{name: "midi with out port", modify: func(c *Config) { c.MIDI.Enabled = true; c.MIDI.OutPort = "XG" }},
		{name: "missing database path", modify: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", modify: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "mqtt without prefix", modify: func(c *Config) { c.MQTT.Enabled = true; c.MQTT.TopicPrefix = "" }, wantErr: true},
		{name: "influx without url", modify: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{name: "invalid port low", modify: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", modify: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "mcp logging to stdout", modify: func(c *Config) { c.MCP.Enabled = true }, wantErr: true},
		{name: "mcp logging to stderr", modify: func(c *Config) { c.MCP.Enabled = true; c.Logging.Output = "stderr" }},
		{name: "autosave without name", modify: func(c *Config) {
			c.Snapshot.AutosaveOnShutdown = true
			c.Snapshot.Autosave = ""
		}, wantErr: true},
		{name: "empty queue", modify: func(c *Config) { c.Fanout.QueueSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		MIDI: MIDIConfig{SendInterval: 5},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetSendInterval().Milliseconds(); got != 5 {
		t.Errorf("GetSendInterval() = %vms, want 5ms", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("XGPARAM_DEVICE_ID", "3")
	t.Setenv("XGPARAM_MIDI_OUT_PORT", "MU100 Out")
	t.Setenv("XGPARAM_MIDI_IN_PORT", "MU100 In")
	t.Setenv("XGPARAM_DATABASE_PATH", "/custom/path.db")
	t.Setenv("XGPARAM_MQTT_HOST", "mqtt.example.com")
	t.Setenv("XGPARAM_MQTT_USERNAME", "testuser")
	t.Setenv("XGPARAM_MQTT_PASSWORD", "testpass")
	t.Setenv("XGPARAM_API_HOST", "192.168.1.1")
	t.Setenv("XGPARAM_API_PORT", "9000")
	t.Setenv("XGPARAM_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("XGPARAM_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Device.ID != 3 {
		t.Errorf("Device.ID = %d, want 3", cfg.Device.ID)
	}

	if cfg.MIDI.OutPort != "MU100 Out" || cfg.MIDI.InPort != "MU100 In" {
		t.Errorf("MIDI ports = %q/%q", cfg.MIDI.InPort, cfg.MIDI.OutPort)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" || cfg.API.Port != 9000 {
		t.Errorf("API = %s:%d, want 192.168.1.1:9000", cfg.API.Host, cfg.API.Port)
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_BadInteger(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("XGPARAM_API_PORT", "eighty")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8480 {
		t.Errorf("API.Port = %d, want default kept", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate: %v", err)
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8480 {
		t.Errorf("defaultConfig API.Port = %d, want 8480", cfg.API.Port)
	}

	if cfg.MIDI.Enabled || cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.MCP.Enabled {
		t.Error("defaultConfig should leave external integrations disabled")
	}
}
