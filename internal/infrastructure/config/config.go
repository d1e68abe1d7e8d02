package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the La Marzocco bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Cloud    CloudConfig    `yaml:"cloud"`
	Settings SettingsConfig `yaml:"settings"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CloudConfig contains La Marzocco cloud account and endpoint settings.
type CloudConfig struct {
	// BaseURL is the REST API root, e.g. "https://lion.lamarzocco.io/api/customer-app".
	BaseURL string `yaml:"base_url"`

	// WebsocketURL is the realtime endpoint, e.g. "wss://lion.lamarzocco.io/ws/connect".
	WebsocketURL string `yaml:"websocket_url"`

	// Host is the STOMP virtual host, e.g. "lion.lamarzocco.io".
	Host string `yaml:"host"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Serial is the machine serial number, e.g. "MR123456".
	Serial string `yaml:"serial"`

	// HTTPTimeout bounds each REST call, in seconds.
	HTTPTimeout int `yaml:"http_timeout"`

	// ReconnectInterval is the realtime reconnect poll cadence, in seconds.
	ReconnectInterval int `yaml:"reconnect_interval"`
}

// SettingsConfig contains the SQLite settings store configuration. The store
// holds the persisted device identity across restarts.
type SettingsConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
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
// Environment variables follow the pattern: LMBRIDGE_SECTION_KEY
// For example: LMBRIDGE_CLOUD_PASSWORD, LMBRIDGE_SETTINGS_PATH
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
		Cloud: CloudConfig{
			BaseURL:           "https://lion.lamarzocco.io/api/customer-app",
			WebsocketURL:      "wss://lion.lamarzocco.io/ws/connect",
			Host:              "lion.lamarzocco.io",
			HTTPTimeout:       15,
			ReconnectInterval: 30,
		},
		Settings: SettingsConfig{
			Path:        "./data/lamarzocco.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-lamarzocco",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LMBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud account — credentials normally come from the environment rather
	// than the config file.
	if v := os.Getenv("LMBRIDGE_CLOUD_USERNAME"); v != "" {
		cfg.Cloud.Username = v
	}
	if v := os.Getenv("LMBRIDGE_CLOUD_PASSWORD"); v != "" {
		cfg.Cloud.Password = v
	}
	if v := os.Getenv("LMBRIDGE_CLOUD_SERIAL"); v != "" {
		cfg.Cloud.Serial = v
	}
	if v := os.Getenv("LMBRIDGE_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}

	// Settings store
	if v := os.Getenv("LMBRIDGE_SETTINGS_PATH"); v != "" {
		cfg.Settings.Path = v
	}

	// MQTT
	if v := os.Getenv("LMBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LMBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LMBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("LMBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}
	if c.Cloud.WebsocketURL == "" {
		errs = append(errs, "cloud.websocket_url is required")
	}
	if c.Cloud.Username == "" {
		errs = append(errs, "cloud.username is required (set LMBRIDGE_CLOUD_USERNAME environment variable)")
	}
	if c.Cloud.Password == "" {
		errs = append(errs, "cloud.password is required (set LMBRIDGE_CLOUD_PASSWORD environment variable)")
	}
	if c.Cloud.Serial == "" {
		errs = append(errs, "cloud.serial is required")
	}
	if c.Cloud.HTTPTimeout < 1 {
		errs = append(errs, "cloud.http_timeout must be at least 1 second")
	}
	if c.Cloud.ReconnectInterval < 1 {
		errs = append(errs, "cloud.reconnect_interval must be at least 1 second")
	}

	if c.Settings.Path == "" {
		errs = append(errs, "settings.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set LMBRIDGE_INFLUXDB_TOKEN environment variable)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetHTTPTimeout returns the REST call timeout as a Duration.
func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.Cloud.HTTPTimeout) * time.Second
}

// GetReconnectInterval returns the realtime reconnect poll cadence as a Duration.
func (c *Config) GetReconnectInterval() time.Duration {
	return time.Duration(c.Cloud.ReconnectInterval) * time.Second
}
