package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpsched/mpsched/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Multipath.Algor != "minrtt" {
		t.Errorf("Multipath.Algor = %q, want %q", cfg.Multipath.Algor, "minrtt")
	}

	if cfg.Multipath.MinDatagram != 1200 {
		t.Errorf("Multipath.MinDatagram = %d, want %d", cfg.Multipath.MinDatagram, 1200)
	}

	if cfg.Paths.InitialRTT != 200*time.Millisecond {
		t.Errorf("Paths.InitialRTT = %v, want %v", cfg.Paths.InitialRTT, 200*time.Millisecond)
	}

	if cfg.Control.Addr != ":7443" {
		t.Errorf("Control.Addr = %q, want %q", cfg.Control.Addr, ":7443")
	}

	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9464")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	// Defaults must pass validation.
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
multipath:
  algor: "redundant"
  min_datagram: 1400
paths:
  initial_rtt: "100ms"
control:
  addr: ":8443"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Multipath.Algor != "redundant" {
		t.Errorf("Multipath.Algor = %q, want %q", cfg.Multipath.Algor, "redundant")
	}

	if cfg.Multipath.MinDatagram != 1400 {
		t.Errorf("Multipath.MinDatagram = %d, want %d", cfg.Multipath.MinDatagram, 1400)
	}

	if cfg.Paths.InitialRTT != 100*time.Millisecond {
		t.Errorf("Paths.InitialRTT = %v, want %v", cfg.Paths.InitialRTT, 100*time.Millisecond)
	}

	if cfg.Control.Addr != ":8443" {
		t.Errorf("Control.Addr = %q, want %q", cfg.Control.Addr, ":8443")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override control.addr and log.level.
	// Everything else should inherit from defaults.
	yamlContent := `
control:
  addr: ":55555"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	// Overridden values.
	if cfg.Control.Addr != ":55555" {
		t.Errorf("Control.Addr = %q, want %q", cfg.Control.Addr, ":55555")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	// Default values should be preserved.
	if cfg.Multipath.Algor != "minrtt" {
		t.Errorf("Multipath.Algor = %q, want default %q", cfg.Multipath.Algor, "minrtt")
	}

	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9464")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty control addr",
			modify: func(cfg *config.Config) {
				cfg.Control.Addr = ""
			},
			wantErr: config.ErrEmptyControlAddr,
		},
		{
			name: "zero min datagram",
			modify: func(cfg *config.Config) {
				cfg.Multipath.MinDatagram = 0
			},
			wantErr: config.ErrInvalidMinDatagram,
		},
		{
			name: "negative min datagram",
			modify: func(cfg *config.Config) {
				cfg.Multipath.MinDatagram = -1
			},
			wantErr: config.ErrInvalidMinDatagram,
		},
		{
			name: "zero initial rtt",
			modify: func(cfg *config.Config) {
				cfg.Paths.InitialRTT = 0
			},
			wantErr: config.ErrInvalidInitialRTT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUnknownAlgorithm(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Multipath.Algor = "bogus"

	if err := config.Validate(cfg); err == nil {
		t.Fatal("Validate() with unknown algorithm: want error, got nil")
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	yamlContent := `
metrics:
  addr: ":9200"
  path: "/metrics"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("MPSCHED_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from YAML)", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "mpsched.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
