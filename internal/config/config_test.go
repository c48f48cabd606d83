package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.HostConcurrency != DefaultHostConcurrency {
		t.Errorf("expected host concurrency %d, got %d", DefaultHostConcurrency, cfg.HostConcurrency)
	}
	if cfg.ConnectionGate != DefaultConnectionGate {
		t.Errorf("expected connection gate %d, got %d", DefaultConnectionGate, cfg.ConnectionGate)
	}
	if cfg.Staleness != 300*time.Second {
		t.Errorf("expected 300s staleness, got %v", cfg.Staleness)
	}
	if cfg.MonitorInterval != 10*time.Second {
		t.Errorf("expected 10s monitor interval, got %v", cfg.MonitorInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestConfigValidate tests validation sentinel errors.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero host concurrency", func(c *Config) { c.HostConcurrency = 0 }, ErrInvalidHostConcurrency},
		{"zero connection gate", func(c *Config) { c.ConnectionGate = 0 }, ErrInvalidConnectionGate},
		{"zero connect retries", func(c *Config) { c.ConnectRetries = 0 }, ErrInvalidConnectRetries},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -time.Second }, ErrInvalidDelay},
		{"zero monitor interval", func(c *Config) { c.MonitorInterval = 0 }, ErrInvalidMonitorInterval},
		{"zero staleness", func(c *Config) { c.Staleness = 0 }, ErrInvalidStaleness},
		{"zero sniff bytes", func(c *Config) { c.SniffBytes = 0 }, ErrInvalidSniffBytes},
		{"both report formats", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("empty host list is valid", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Hosts = nil
		if err := cfg.Validate(); err != nil {
			t.Errorf("empty host list must not be a validation error: %v", err)
		}
	})
}

// TestLoadConfigFile tests YAML config loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads excludes and catalog overrides", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `exclude:
  - 192.168.1.1/32
catalog:
  rtsp:
    ports: [554, 10554]
    timeout: 2s
    retries: 2
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "192.168.1.1/32" {
			t.Errorf("unexpected excludes: %v", cfg.Exclude)
		}
		ov, ok := cfg.CatalogOverrides["rtsp"]
		if !ok {
			t.Fatal("expected rtsp override")
		}
		if ov.Timeout != 2*time.Second {
			t.Errorf("expected 2s timeout, got %v", ov.Timeout)
		}
		if len(ov.Ports) != 2 || ov.Retries != 2 {
			t.Errorf("unexpected override: %+v", ov)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"), cfg)
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("bad duration string is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := "catalog:\n  rtsp:\n    timeout: fast\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("malformed yaml is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(":\n\t- nope"), 0600); err != nil {
			t.Fatal(err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

// TestFindConfigFile tests the config search order.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("exclude: []\n"), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}
