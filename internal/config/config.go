// Package config manages schedulerd configuration using koanf/v2.
//
// Supports YAML files, environment variables, and layered defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mpsched/mpsched/internal/scheduler"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete schedulerd configuration.
type Config struct {
	Multipath MultipathConfig `koanf:"multipath"`
	Paths     PathsConfig     `koanf:"paths"`
	Control   ControlConfig   `koanf:"control"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
}

// MultipathConfig holds the scheduler algorithm and eligibility knobs.
type MultipathConfig struct {
	// Algor is the scheduling algorithm name: "minrtt" or "redundant",
	// parsed case-insensitively by scheduler.ParseAlgorithm.
	Algor string `koanf:"algor"`

	// MinDatagram is the minimum congestion-window headroom, in bytes,
	// a path must have to be eligible for selection.
	MinDatagram int64 `koanf:"min_datagram"`
}

// PathsConfig holds per-path defaults applied when a path is added.
type PathsConfig struct {
	// InitialRTT is substituted for a path's smoothed RTT until the
	// first real measurement arrives.
	InitialRTT time.Duration `koanf:"initial_rtt"`
}

// ControlConfig holds the health/status HTTP(h2c) listener configuration.
type ControlConfig struct {
	// Addr is the control-plane listen address (e.g., ":7443").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9464").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Multipath: MultipathConfig{
			Algor:       "minrtt",
			MinDatagram: 1200,
		},
		Paths: PathsConfig{
			InitialRTT: 200 * time.Millisecond,
		},
		Control: ControlConfig{
			Addr: ":7443",
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for schedulerd configuration.
// Variables are named MPSCHED_<section>_<key>, e.g., MPSCHED_CONTROL_ADDR.
const envPrefix = "MPSCHED_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (MPSCHED_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	MPSCHED_MULTIPATH_ALGOR   -> multipath.algor
//	MPSCHED_CONTROL_ADDR      -> control.addr
//	MPSCHED_METRICS_ADDR      -> metrics.addr
//	MPSCHED_LOG_LEVEL         -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms MPSCHED_CONTROL_ADDR -> control.addr.
// Strips the MPSCHED_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"multipath.algor":        defaults.Multipath.Algor,
		"multipath.min_datagram": defaults.Multipath.MinDatagram,
		"paths.initial_rtt":      defaults.Paths.InitialRTT.String(),
		"control.addr":           defaults.Control.Addr,
		"metrics.addr":           defaults.Metrics.Addr,
		"metrics.path":           defaults.Metrics.Path,
		"log.level":              defaults.Log.Level,
		"log.format":             defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyControlAddr indicates the control listen address is empty.
	ErrEmptyControlAddr = errors.New("control.addr must not be empty")

	// ErrInvalidMinDatagram indicates multipath.min_datagram is non-positive.
	ErrInvalidMinDatagram = errors.New("multipath.min_datagram must be > 0")

	// ErrInvalidInitialRTT indicates paths.initial_rtt is non-positive.
	ErrInvalidInitialRTT = errors.New("paths.initial_rtt must be > 0")
)

// Validate checks the configuration for logical errors, including parsing
// multipath.algor through scheduler.ParseAlgorithm so an unrecognized
// algorithm name fails configuration validation with the same
// scheduler.InvalidConfigError the scheduler factory would raise.
func Validate(cfg *Config) error {
	if cfg.Control.Addr == "" {
		return ErrEmptyControlAddr
	}

	if cfg.Multipath.MinDatagram <= 0 {
		return ErrInvalidMinDatagram
	}

	if cfg.Paths.InitialRTT <= 0 {
		return ErrInvalidInitialRTT
	}

	if _, err := scheduler.ParseAlgorithm(cfg.Multipath.Algor); err != nil {
		return fmt.Errorf("multipath.algor: %w", err)
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
