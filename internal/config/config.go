// Package config provides configuration loading for prefd.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/prefd/internal/adapt"
)

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the complete prefd configuration.
type Config struct {
	Server     ServerConfig   `koanf:"server"`
	Logging    LoggingConfig  `koanf:"logging"`
	NATS       NATSConfig     `koanf:"nats"`
	Snapshot   SnapshotConfig `koanf:"snapshot"`
	Adaptation adapt.Config   `koanf:"adaptation"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// NATSConfig holds the optional feedback ingest bridge settings. An
// empty URL disables the bridge entirely.
type NATSConfig struct {
	URL string `koanf:"url"`

	// SubjectPrefix roots the subscribe/publish subjects. Events arrive
	// on "<prefix>.events.>" and fold results publish under
	// "<prefix>.state.".
	SubjectPrefix string `koanf:"subject_prefix"`
}

// SnapshotConfig holds the optional bbolt persistence settings. An empty
// path disables persistence.
type SnapshotConfig struct {
	Path string `koanf:"path"`

	// Interval between periodic snapshots. Zero means snapshot only on
	// shutdown.
	Interval Duration `koanf:"interval"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8710,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			SubjectPrefix: "feedback",
		},
		Adaptation: adapt.DefaultConfig(),
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	if c.NATS.URL != "" && c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats subject prefix is required when a nats url is set")
	}
	if err := c.Adaptation.Validate(); err != nil {
		return fmt.Errorf("adaptation: %w", err)
	}
	return nil
}
