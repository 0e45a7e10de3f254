package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/flemzord/chatloop/internal/provider"
)

// Validate checks the structural validity of a Config and reports every
// problem found, joined.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}
	if cfg.Model == "" {
		errs = append(errs, errors.New("config: model is required"))
	}
	if cfg.Window < 1 {
		errs = append(errs, fmt.Errorf("config: window must be at least 1, got %d", cfg.Window))
	}
	if err := cfg.Generation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: generation: %w", err))
	}
	if _, err := cfg.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		errs = append(errs, err)
	}

	known := provider.Backends()
	if !slices.Contains(known, cfg.Backend) {
		errs = append(errs, fmt.Errorf("config: unknown backend %q (available: %v)", cfg.Backend, known))
	}
	for id := range cfg.Providers {
		if !slices.Contains(known, id) {
			errs = append(errs, fmt.Errorf("config: providers: unknown backend %q", id))
		}
	}

	return errors.Join(errs...)
}

// LogLevel parses Log.Level. An empty level means warn.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Log.Level == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
