// Package config provides configuration management for ADJ Valet.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with ADJ_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./adjvalet.yaml, ./configs/adjvalet.yaml, ~/.adjvalet/adjvalet.yaml, /etc/adjvalet/adjvalet.yaml)
//  3. .env files
//  4. Environment variables (ADJ_ prefix)
//  5. Command line flags bound to the viper instance passed to LoadWith
//
// # Usage Example
//
//	cfg, err := config.Load("adjvalet.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Backend: %s\n", cfg.Backend.URL)
//
// # Environment Variables
//
// Use the ADJ_ prefix and underscores for nested keys:
//   - ADJ_BACKEND_URL=http://localhost:8000
//   - ADJ_BACKEND_PORT_COUNT=5
//   - ADJ_LOGGING_LEVEL=debug
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for ADJ Valet.
type Config struct {
	// Backend configures how the backend service is located and called
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Cache configures the durable session state
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Mock configures the in-memory backend started by mock-backend
	Mock MockConfig `mapstructure:"mock" yaml:"mock"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// BackendConfig contains backend client settings.
type BackendConfig struct {
	// URL pins the backend address and disables discovery
	URL string `mapstructure:"url" yaml:"url"`

	// DiscoveryURL is where the backend publishes its address: an http(s)
	// URL or a local .adj-valet-port file
	DiscoveryURL string `mapstructure:"discovery_url" yaml:"discovery_url"`

	// DefaultURL is used when discovery finds nothing
	DefaultURL string `mapstructure:"default_url" yaml:"default_url"`

	// Host, PortStart and PortCount define the probed candidates
	Host      string `mapstructure:"host" yaml:"host"`
	PortStart int    `mapstructure:"port_start" yaml:"port_start"`
	PortCount int    `mapstructure:"port_count" yaml:"port_count"`

	// ProbeTimeout bounds each liveness probe
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`

	// RequestTimeout bounds each API request
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// ProbeRate limits discovery probes per second (0 = unlimited)
	ProbeRate float64 `mapstructure:"probe_rate" yaml:"probe_rate"`
}

// CacheConfig contains session state settings.
type CacheConfig struct {
	// Path is the state file (default: ~/.adjvalet/state.yaml)
	Path string `mapstructure:"path" yaml:"path"`

	// Snapshot also caches the last known document
	Snapshot bool `mapstructure:"snapshot" yaml:"snapshot"`
}

// MockConfig contains mock backend settings.
type MockConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// Seed is a JSON document served under SeedPath (empty = built-in demo)
	Seed     string `mapstructure:"seed" yaml:"seed"`
	SeedPath string `mapstructure:"seed_path" yaml:"seed_path"`

	// PortFile is where the discovery document is written (empty = none)
	PortFile string `mapstructure:"port_file" yaml:"port_file"`

	// RateLimit is the maximum requests per second per client
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level" yaml:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format" yaml:"format"`

	// Output is the log destination (stderr, stdout, or a file path)
	Output string `mapstructure:"output" yaml:"output"`
}

// Load reads configuration using a fresh viper instance.
func Load(cfgFile string) (*Config, error) {
	return LoadWith(viper.New(), cfgFile)
}

// LoadWith reads configuration into v, keeping any flags already bound to
// it. If cfgFile is empty, adjvalet.yaml is searched in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Flags bound to v
//  2. Environment variables (ADJ_ prefix)
//  3. .env file
//  4. Configuration file
//  5. Default values
func LoadWith(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("adjvalet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.adjvalet")
		v.AddConfigPath("/etc/adjvalet")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults, anything else is an error
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isFileNotFoundError(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("ADJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.discovery_url", ".adj-valet-port")
	v.SetDefault("backend.default_url", "http://localhost:8000")
	v.SetDefault("backend.host", "localhost")
	v.SetDefault("backend.port_start", 8000)
	v.SetDefault("backend.port_count", 20)
	v.SetDefault("backend.probe_timeout", "2s")
	v.SetDefault("backend.request_timeout", "5s")
	v.SetDefault("backend.probe_rate", 0)

	v.SetDefault("cache.path", "")
	v.SetDefault("cache.snapshot", true)

	v.SetDefault("mock.host", "127.0.0.1")
	v.SetDefault("mock.port", 8000)
	v.SetDefault("mock.seed", "")
	v.SetDefault("mock.seed_path", "demo")
	v.SetDefault("mock.port_file", ".adj-valet-port")
	v.SetDefault("mock.rate_limit", 0)
	v.SetDefault("mock.allowed_origins", []string{"*"})
	v.SetDefault("mock.shutdown_timeout", "10s")
	v.SetDefault("mock.debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

func validate(cfg *Config) error {
	b := cfg.Backend
	if b.PortCount < 0 {
		return fmt.Errorf("backend port_count must not be negative: %d", b.PortCount)
	}
	if b.PortCount > 0 && (b.PortStart < 1 || b.PortStart+b.PortCount-1 > 65535) {
		return fmt.Errorf("invalid backend port range: %d-%d", b.PortStart, b.PortStart+b.PortCount-1)
	}
	if b.ProbeTimeout <= 0 {
		return fmt.Errorf("backend probe_timeout must be positive: %s", b.ProbeTimeout)
	}
	if b.RequestTimeout <= 0 {
		return fmt.Errorf("backend request_timeout must be positive: %s", b.RequestTimeout)
	}
	if b.ProbeRate < 0 {
		return fmt.Errorf("backend probe_rate must not be negative: %v", b.ProbeRate)
	}

	if cfg.Mock.Port < 0 || cfg.Mock.Port > 65535 {
		return fmt.Errorf("invalid mock port: %d", cfg.Mock.Port)
	}
	if cfg.Mock.SeedPath == "" {
		return fmt.Errorf("mock seed_path is required")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %q", cfg.Logging.Format)
	}

	return nil
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
