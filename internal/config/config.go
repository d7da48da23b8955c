// Package config defines the engine configuration and its layered loader.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Workers sets the worker pool size for table builds and batch queries.
	Workers int `koanf:"workers"`

	// TableBins is the default orbit table resolution.
	TableBins int `koanf:"table_bins"`

	// DerivativeStep is the finite-difference perturbation per parameter.
	DerivativeStep float64 `koanf:"derivative_step"`

	// CacheMaxEntries bounds the number of cached tables.
	CacheMaxEntries int `koanf:"cache_max_entries"`

	// StellarRadius in solar radii scales light-travel-time delays.
	StellarRadius float64 `koanf:"stellar_radius"`
}

// New returns a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Workers:         runtime.NumCPU(),
		TableBins:       1000,
		DerivativeStep:  1e-4,
		CacheMaxEntries: 64,
		StellarRadius:   1.0,
	}
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.TableBins < 3 {
		return fmt.Errorf("%w: table_bins must be at least 3, got %d", ErrInvalidConfig, c.TableBins)
	}
	if !(c.DerivativeStep > 0) {
		return fmt.Errorf("%w: derivative_step must be positive, got %g", ErrInvalidConfig, c.DerivativeStep)
	}
	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("%w: cache_max_entries must be at least 1, got %d", ErrInvalidConfig, c.CacheMaxEntries)
	}
	if !(c.StellarRadius > 0) {
		return fmt.Errorf("%w: stellar_radius must be positive, got %g", ErrInvalidConfig, c.StellarRadius)
	}
	return nil
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, s)
	}
}
