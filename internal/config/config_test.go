package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tada.yaml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Engine != "file" || cfg.Storage.Dir != "." || cfg.Storage.Namespace != "todos" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Persist.Throttle != 0 {
		t.Errorf("throttle = %v, want 0", cfg.Persist.Throttle)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.UI.Theme != "classic" || cfg.Metrics.Addr != "" {
		t.Errorf("ui = %+v metrics = %+v", cfg.UI, cfg.Metrics)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
storage:
  engine: badger
  dir: /var/lib/tada
persist:
  throttle: 250ms
ui:
  theme: neon
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Engine != "badger" || cfg.Storage.Dir != "/var/lib/tada" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Namespace != "todos" {
		t.Errorf("namespace default lost: %q", cfg.Storage.Namespace)
	}
	if cfg.Persist.Throttle != 250*time.Millisecond {
		t.Errorf("throttle = %v", cfg.Persist.Throttle)
	}
	if cfg.UI.Theme != "neon" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "storage:\n  engine: badger\nlog:\n  level: info\n")
	t.Setenv("TADA_STORAGE_ENGINE", "memory")
	t.Setenv("TADA_LOG_LEVEL", "debug")
	t.Setenv("TADA_METRICS_ADDR", "127.0.0.1:9464")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Engine != "memory" {
		t.Errorf("engine = %q, want memory", cfg.Storage.Engine)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"engine", "storage:\n  engine: sqlite\n"},
		{"namespace", "storage:\n  namespace: a/b\n"},
		{"level", "log:\n  level: loud\n"},
		{"format", "log:\n  format: xml\n"},
		{"theme", "ui:\n  theme: pastel\n"},
		{"throttle", "persist:\n  throttle: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Storage.Engine = "BADGER"
	sc := cfg.StorageAdapterConfig()
	if sc.Engine != "badger" || sc.Dir != "." {
		t.Errorf("storage config = %+v", sc)
	}
	lc := cfg.LoggerConfig()
	if lc.Level != "warn" || lc.Format != "text" || lc.Output == nil {
		t.Errorf("logger config = %+v", lc)
	}
}
