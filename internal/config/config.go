// Package config loads runtime settings. Values are layered: Default, then
// an optional YAML file, then SANTA_* environment variables. The CLI applies
// its flags on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the CLI and server need.
//
// Env tags carry no defaults so that an unset variable never overrides a
// value from the file.
type Config struct {
	// OperatorID is the only participant allowed to start an exchange.
	OperatorID string `yaml:"operator_id" env:"SANTA_OPERATOR_ID"`

	// DB is the SQLite database path.
	DB string `yaml:"db" env:"SANTA_DB"`

	// Listen is the serve address.
	Listen string `yaml:"listen" env:"SANTA_LISTEN"`

	// Locale selects the message catalog (ru or en).
	Locale string `yaml:"locale" env:"SANTA_LOCALE"`

	// MaxTrials bounds the random shuffles before the rotation fallback.
	MaxTrials int `yaml:"max_trials" env:"SANTA_MAX_TRIALS"`

	// SendBuffer is the per-session outbound frame buffer of the hub.
	SendBuffer int `yaml:"send_buffer" env:"SANTA_SEND_BUFFER"`

	// ShutdownTimeout bounds graceful shutdown of serve.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SANTA_SHUTDOWN_TIMEOUT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:              "santa.db",
		Listen:          ":8080",
		Locale:          "ru",
		MaxTrials:       200,
		SendBuffer:      16,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the program cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.MaxTrials < 1 {
		errs = append(errs, fmt.Errorf("max_trials must be at least 1, got %d", c.MaxTrials))
	}
	if c.SendBuffer < 1 {
		errs = append(errs, fmt.Errorf("send_buffer must be at least 1, got %d", c.SendBuffer))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
