package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
cloud:
  username: "barista@example.com"
  password: "hunter2-but-longer"
  serial: "MR123456"
settings:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
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

	if cfg.Cloud.Serial != "MR123456" {
		t.Errorf("Cloud.Serial = %q, want %q", cfg.Cloud.Serial, "MR123456")
	}

	if cfg.Settings.Path != "/tmp/test.db" {
		t.Errorf("Settings.Path = %q, want %q", cfg.Settings.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Endpoints not set in the file keep their defaults.
	if cfg.Cloud.BaseURL == "" {
		t.Error("Cloud.BaseURL should keep its default when absent from file")
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
cloud:
  username: "barista@example.com"
  serial: ""
settings:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for missing serial, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	validCloud := CloudConfig{
		BaseURL:           "https://lion.lamarzocco.io/api/customer-app",
		WebsocketURL:      "wss://lion.lamarzocco.io/ws/connect",
		Host:              "lion.lamarzocco.io",
		Username:          "barista@example.com",
		Password:          "hunter2-but-longer",
		Serial:            "MR123456",
		HTTPTimeout:       15,
		ReconnectInterval: 30,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Cloud.Username = "" },
			wantErr: true,
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.Cloud.Password = "" },
			wantErr: true,
		},
		{
			name:    "missing serial",
			mutate:  func(c *Config) { c.Cloud.Serial = "" },
			wantErr: true,
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.Cloud.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing settings path",
			mutate:  func(c *Config) { c.Settings.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero reconnect interval",
			mutate:  func(c *Config) { c.Cloud.ReconnectInterval = 0 },
			wantErr: true,
		},
		{
			name:    "influx enabled without token",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://localhost:8086" },
			wantErr: true,
		},
		{
			name: "influx enabled fully configured",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Token = "token"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Cloud:    validCloud,
				Settings: SettingsConfig{Path: "/data/lamarzocco.db"},
				MQTT:     MQTTConfig{QoS: 1},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Cloud: CloudConfig{
			HTTPTimeout:       15,
			ReconnectInterval: 30,
		},
	}

	if got := cfg.GetHTTPTimeout().Seconds(); got != 15 {
		t.Errorf("GetHTTPTimeout() = %v, want 15", got)
	}

	if got := cfg.GetReconnectInterval().Seconds(); got != 30 {
		t.Errorf("GetReconnectInterval() = %v, want 30", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("LMBRIDGE_CLOUD_USERNAME", "barista@example.com")
	t.Setenv("LMBRIDGE_CLOUD_PASSWORD", "env-password")
	t.Setenv("LMBRIDGE_CLOUD_SERIAL", "MR654321")
	t.Setenv("LMBRIDGE_SETTINGS_PATH", "/custom/path.db")
	t.Setenv("LMBRIDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("LMBRIDGE_MQTT_USERNAME", "testuser")
	t.Setenv("LMBRIDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("LMBRIDGE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Cloud.Username != "barista@example.com" {
		t.Errorf("Cloud.Username = %q", cfg.Cloud.Username)
	}

	if cfg.Cloud.Password != "env-password" {
		t.Errorf("Cloud.Password = %q", cfg.Cloud.Password)
	}

	if cfg.Cloud.Serial != "MR654321" {
		t.Errorf("Cloud.Serial = %q", cfg.Cloud.Serial)
	}

	if cfg.Settings.Path != "/custom/path.db" {
		t.Errorf("Settings.Path = %q, want %q", cfg.Settings.Path, "/custom/path.db")
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

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Cloud.BaseURL == "" {
		t.Error("defaultConfig should have non-empty Cloud.BaseURL")
	}

	if cfg.Settings.Path == "" {
		t.Error("defaultConfig should have non-empty Settings.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Cloud.ReconnectInterval != 30 {
		t.Errorf("defaultConfig Cloud.ReconnectInterval = %d, want 30", cfg.Cloud.ReconnectInterval)
	}
}
