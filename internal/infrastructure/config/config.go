package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the human repository factory.
const (
	StorageDriverStub   = "stub"
	StorageDriverSQLite = "sqlite"
)

// Config is the root configuration structure for Holocron.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API       APIConfig       `yaml:"api"`
	GraphQL   GraphQLConfig   `yaml:"graphql"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
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

// GraphQLConfig contains GraphQL endpoint settings.
type GraphQLConfig struct {
	Path       string `yaml:"path"`
	Playground bool   `yaml:"playground"`
	APIVersion string `yaml:"api_version"`
}

// WebSocketConfig contains subscription transport settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	// PingInterval is the keep-alive period in seconds.
	PingInterval int `yaml:"ping_interval"`
	// WriteTimeout bounds a single outbound frame write, in seconds.
	WriteTimeout int `yaml:"write_timeout"`
}

// EventBusConfig contains in-process event bus settings.
type EventBusConfig struct {
	// Capacity is the number of events retained for slow subscribers.
	Capacity int `yaml:"capacity"`
}

// StorageConfig selects the human repository implementation.
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the event relay.
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
// When optional is true, a missing file is not an error and the defaults are used.
//
// Environment variables follow the pattern: HOLOCRON_SECTION_KEY
// For example: HOLOCRON_API_PORT, HOLOCRON_STORAGE_DRIVER
func Load(path string, optional bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
			},
		},
		GraphQL: GraphQLConfig{
			Path:       "/graphql",
			Playground: true,
			APIVersion: "1.0",
		},
		WebSocket: WebSocketConfig{
			Path:           "/graphql/ws",
			MaxMessageSize: 65536,
			PingInterval:   15,
			WriteTimeout:   10,
		},
		EventBus: EventBusConfig{
			Capacity: 100,
		},
		Storage: StorageConfig{
			Driver: StorageDriverStub,
		},
		Database: DatabaseConfig{
			Path:        "./data/holocron.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "holocron",
			},
			QoS:         1,
			TopicPrefix: "holocron",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HOLOCRON_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("HOLOCRON_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HOLOCRON_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Storage
	if v := os.Getenv("HOLOCRON_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("HOLOCRON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HOLOCRON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HOLOCRON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HOLOCRON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HOLOCRON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("HOLOCRON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if !strings.HasPrefix(c.GraphQL.Path, "/") {
		errs = append(errs, "graphql.path must start with /")
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}
	if c.WebSocket.PingInterval < 1 {
		errs = append(errs, "websocket.ping_interval must be at least 1 second")
	}
	if c.WebSocket.MaxMessageSize < 1 {
		errs = append(errs, "websocket.max_message_size must be positive")
	}

	if c.EventBus.Capacity < 1 {
		errs = append(errs, "eventbus.capacity must be positive")
	}

	switch c.Storage.Driver {
	case StorageDriverStub:
	case StorageDriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite storage driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not one of stub, sqlite", c.Storage.Driver))
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
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

// GetPingInterval returns the WebSocket keep-alive interval as a Duration.
func (c WebSocketConfig) GetPingInterval() time.Duration {
	return time.Duration(c.PingInterval) * time.Second
}

// GetWriteTimeout returns the per-frame write deadline as a Duration.
func (c WebSocketConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}
