package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/namezys/hass-home-script/errors"
)

// Log verbosity and format values accepted by Validate.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NATSConfig holds the host event bus connection settings.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	Subject        string        `yaml:"subject"`
	Name           string        `yaml:"name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Config is the complete daemon configuration.
type Config struct {
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	NATS      NATSConfig    `yaml:"nats"`
	Metrics   MetricsConfig `yaml:"metrics"`

	// ShutdownTimeout bounds the wait for in-flight script tasks on stop.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			Subject:        "homeassistant.state_changed",
			Name:           "home-script",
			ConnectTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9102",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads the configuration file, applies environment overrides and
// validates the result. An empty path loads defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "config", "Load", "read file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Invalid(errors.ErrInvalidConfig, "parse %s: %s", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. Variables cover the
// settings that vary between deployments of the same rule set.
func (c *Config) applyEnv() {
	setString(&c.LogLevel, "HOME_SCRIPT_LOG_LEVEL")
	setString(&c.LogFormat, "HOME_SCRIPT_LOG_FORMAT")
	setString(&c.NATS.URL, "HOME_SCRIPT_NATS_URL")
	setString(&c.NATS.Subject, "HOME_SCRIPT_NATS_SUBJECT")
	setString(&c.NATS.Name, "HOME_SCRIPT_NATS_NAME")
	setBool(&c.Metrics.Enabled, "HOME_SCRIPT_METRICS_ENABLED")
	setString(&c.Metrics.Listen, "HOME_SCRIPT_METRICS_LISTEN")
	setDuration(&c.ShutdownTimeout, "HOME_SCRIPT_SHUTDOWN_TIMEOUT")
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return errors.Invalid(errors.ErrInvalidConfig, "unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return errors.Invalid(errors.ErrInvalidConfig, "unknown log format %q", c.LogFormat)
	}
	if c.NATS.URL == "" {
		return errors.Invalid(errors.ErrMissingConfig, "nats.url is required")
	}
	if c.NATS.Subject == "" {
		return errors.Invalid(errors.ErrMissingConfig, "nats.subject is required")
	}
	if c.NATS.ConnectTimeout < 0 {
		return errors.Invalid(errors.ErrInvalidConfig, "nats.connect_timeout must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.Invalid(errors.ErrMissingConfig, "metrics.listen is required when metrics are enabled")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.Invalid(errors.ErrInvalidConfig, "shutdown_timeout must be positive")
	}
	return nil
}

func setString(target *string, name string) {
	if value, ok := os.LookupEnv(name); ok {
		*target = value
	}
}

func setBool(target *bool, name string) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return
	}
	*target = parsed
}

func setDuration(target *time.Duration, name string) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return
	}
	*target = parsed
}

func (c Config) String() string {
	return fmt.Sprintf("log %s/%s, nats %s subject %s, metrics enabled=%t",
		c.LogLevel, c.LogFormat, c.NATS.URL, c.NATS.Subject, c.Metrics.Enabled)
}
