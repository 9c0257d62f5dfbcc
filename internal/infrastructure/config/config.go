package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root settings structure for the HAP engine process.
// Settings are loaded from YAML and can be overridden by environment variables.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig contains engine identity and scheduling settings.
type EngineConfig struct {
	// Name identifies the engine in logs and is the default configuration
	// identifier.
	Name string `yaml:"name"`

	// Identifier names the module configuration file (Identifier + ".ini").
	// Empty means Name.
	Identifier string `yaml:"identifier"`

	// ConfigDir is the directory holding module configuration files.
	ConfigDir string `yaml:"config_dir"`

	// TickInterval is the pause between dispatcher ticks.
	TickInterval time.Duration `yaml:"tick_interval"`

	// MaxTicks stops the engine after this many ticks. 0 means unbounded.
	MaxTicks int `yaml:"max_ticks"`

	// Modules lists module identifiers in instantiation order. When empty
	// the list comes from the configuration file.
	Modules []string `yaml:"modules"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig
	Auth      MQTTAuthConfig
	QoS       int
	Reconnect MQTTReconnectConfig
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string
	Port     int
	TLS      bool
	ClientID string
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string
	Password string
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int
	MaxDelay     int
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool
	URL           string
	Token         string
	Org           string
	Bucket        string
	BatchSize     int
	FlushInterval int
}

// APIConfig contains status API server settings.
type APIConfig struct {
	Host     string
	Port     int
	TLS      TLSConfig
	Timeouts APITimeoutConfig
	CORS     CORSConfig
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// APITimeoutConfig contains HTTP server timeouts (seconds).
type APITimeoutConfig struct {
	Read  int
	Write int
	Idle  int
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
// An empty AllowedOrigins list allows every origin.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// WebSocketConfig contains WebSocket settings. Intervals are seconds.
type WebSocketConfig struct {
	MaxMessageSize int
	PingInterval   int
	PongTimeout    int
}

// validLogLevels lists the accepted logging.level values.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "notice": true,
	"warn": true, "warning": true, "error": true, "fatal": true,
}

// Load reads settings from a YAML file and applies environment variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HAP_SECTION_KEY
// For example: HAP_ENGINE_NAME, HAP_LOG_LEVEL
//
// Parameters:
//   - path: Path to the YAML settings file
//
// Returns:
//   - *Config: Loaded and validated settings
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to defaults (plus
// environment overrides) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(defaultConfig())
	}
	return cfg, err
}

// finish applies environment overrides and validates.
func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:         "HAP",
			ConfigDir:    ".",
			TickInterval: 16 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the settings.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HAP_ENGINE_NAME"); v != "" {
		cfg.Engine.Name = v
	}
	if v := os.Getenv("HAP_CONFIG_IDENTIFIER"); v != "" {
		cfg.Engine.Identifier = v
	}
	if v := os.Getenv("HAP_CONFIG_DIR"); v != "" {
		cfg.Engine.ConfigDir = v
	}
	if v := os.Getenv("HAP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HAP_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the settings for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Engine.Name) == "" {
		errs = append(errs, "engine.name is required")
	}
	if c.Engine.TickInterval <= 0 {
		errs = append(errs, "engine.tick_interval must be positive")
	}
	if c.Engine.MaxTicks < 0 {
		errs = append(errs, "engine.max_ticks cannot be negative")
	}

	seen := make(map[string]bool, len(c.Engine.Modules))
	for _, id := range c.Engine.Modules {
		switch {
		case strings.TrimSpace(id) == "":
			errs = append(errs, "engine.modules cannot contain empty identifiers")
		case seen[id]:
			errs = append(errs, fmt.Sprintf("engine.modules lists %q twice", id))
		}
		seen[id] = true
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level %q is not a known level", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	default:
		errs = append(errs, "logging.output must be stdout or stderr")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ConfigIdentifier returns the module configuration identifier, falling
// back to the engine name.
func (c *Config) ConfigIdentifier() string {
	if c.Engine.Identifier != "" {
		return c.Engine.Identifier
	}
	return c.Engine.Name
}
