package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Oasis control daemon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Cloud    CloudConfig    `yaml:"cloud"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig contains settings for the persistent device connection.
//
// Oasis devices talk to a cloud MQTT broker over TLS websockets; the
// defaults match the broker the official app uses.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// QueueSize bounds the pending command queue used while disconnected.
	// On overflow the oldest command is dropped.
	QueueSize int `yaml:"queue_size"`

	// KeepAlive is the MQTT keepalive interval in seconds.
	KeepAlive int `yaml:"keep_alive"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Path is the websocket endpoint path on the broker.
	Path string `yaml:"path"`

	// TLS selects wss:// over ws://.
	TLS bool `yaml:"tls"`

	// ClientID is the MQTT client identifier prefix. A random suffix is
	// appended per connection so multiple daemons can share credentials.
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

// HTTPConfig contains settings for the direct LAN transport.
type HTTPConfig struct {
	// Timeout is the per-request timeout in seconds when talking to a
	// device on the local network.
	Timeout int `yaml:"timeout"`
}

// CloudConfig contains settings for the Oasis cloud API.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`

	// Email and Password are only needed when no access token is supplied.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// AccessToken is a previously issued bearer token. Prefer setting this
	// via the OASIS_CLOUD_TOKEN environment variable.
	AccessToken string `yaml:"access_token"`

	// PlaylistTTL and SoftwareTTL control metadata cache expiry (seconds).
	PlaylistTTL int `yaml:"playlist_ttl"`
	SoftwareTTL int `yaml:"software_ttl"`
}

// CatalogConfig contains settings for the local track catalog database.
type CatalogConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains settings for the optional state-history recorder.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: OASIS_SECTION_KEY
// For example: OASIS_MQTT_HOST, OASIS_CLOUD_TOKEN
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

// Default returns the built-in configuration without reading any file.
// Environment variable overrides are still applied.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "mqtt.grounded.so",
				Port:     8084,
				Path:     "/mqtt",
				TLS:      true,
				ClientID: "oasisctl",
			},
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 4,
				MaxDelay:     60,
			},
			QueueSize: 10,
			KeepAlive: 30,
		},
		HTTP: HTTPConfig{
			Timeout: 10,
		},
		Cloud: CloudConfig{
			BaseURL:     "https://app.grounded.so",
			PlaylistTTL: 300,
			SoftwareTTL: 3600,
		},
		Catalog: CatalogConfig{
			Path:        "./data/tracks.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: OASIS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Logging
	if v := os.Getenv("OASIS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// MQTT
	if v := os.Getenv("OASIS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("OASIS_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("OASIS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("OASIS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Cloud
	if v := os.Getenv("OASIS_CLOUD_EMAIL"); v != "" {
		cfg.Cloud.Email = v
	}
	if v := os.Getenv("OASIS_CLOUD_PASSWORD"); v != "" {
		cfg.Cloud.Password = v
	}
	if v := os.Getenv("OASIS_CLOUD_TOKEN"); v != "" {
		cfg.Cloud.AccessToken = v
	}

	// Catalog
	if v := os.Getenv("OASIS_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	// InfluxDB
	if v := os.Getenv("OASIS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QueueSize < 1 {
		errs = append(errs, "mqtt.queue_size must be at least 1")
	}
	if c.HTTP.Timeout < 1 {
		errs = append(errs, "http.timeout must be at least 1 second")
	}
	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set OASIS_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// HTTPTimeout returns the LAN transport request timeout as a Duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeout) * time.Second
}

// TTLPlaylists returns the playlist cache TTL as a Duration.
func (c *CloudConfig) TTLPlaylists() time.Duration {
	return time.Duration(c.PlaylistTTL) * time.Second
}

// TTLSoftware returns the software metadata cache TTL as a Duration.
func (c *CloudConfig) TTLSoftware() time.Duration {
	return time.Duration(c.SoftwareTTL) * time.Second
}
