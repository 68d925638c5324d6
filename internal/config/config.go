// Package config loads application settings.
//
// Sources, weakest first: built-in defaults, an optional YAML file, and
// TADA_* environment variables (TADA_STORAGE_ENGINE sets storage.engine).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/storage"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "TADA_"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Persist PersistConfig `koanf:"persist"`
	Log     LogConfig     `koanf:"log"`
	UI      UIConfig      `koanf:"ui"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type StorageConfig struct {
	Engine    string `koanf:"engine"`
	Dir       string `koanf:"dir"`
	Namespace string `koanf:"namespace"`
}

type PersistConfig struct {
	// Throttle delays writes so bursts of changes coalesce.
	Throttle time.Duration `koanf:"throttle"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type UIConfig struct {
	Theme string `koanf:"theme"`
}

type MetricsConfig struct {
	// Addr serves /metrics when non-empty, e.g. "127.0.0.1:9464".
	Addr string `koanf:"addr"`
}

func defaults() map[string]any {
	return map[string]any{
		"storage": map[string]any{
			"engine":    storage.EngineFile,
			"dir":       ".",
			"namespace": "todos",
		},
		"persist": map[string]any{
			"throttle": "0s",
		},
		"log": map[string]any{
			"level":  "warn",
			"format": "text",
		},
		"ui": map[string]any{
			"theme": "classic",
		},
		"metrics": map[string]any{
			"addr": "",
		},
	}
}

// Load reads defaults, then path (if non-empty), then the environment.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load file %s: %w", path, err)
		}
	}
	transform := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Engine) {
	case storage.EngineFile, storage.EngineBadger, storage.EngineMemory:
	default:
		return fmt.Errorf("%w: storage.engine %q (want file, badger or memory)", ErrInvalid, c.Storage.Engine)
	}
	if strings.TrimSpace(c.Storage.Namespace) == "" || strings.ContainsAny(c.Storage.Namespace, `/\`) {
		return fmt.Errorf("%w: storage.namespace %q", ErrInvalid, c.Storage.Namespace)
	}
	if c.Persist.Throttle < 0 {
		return fmt.Errorf("%w: persist.throttle must not be negative", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalid, c.Log.Format)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("%w: ui.theme %q (want classic, neon or mono)", ErrInvalid, c.UI.Theme)
	}
	return nil
}

// StorageAdapterConfig converts to the adapter settings.
func (c Config) StorageAdapterConfig() storage.Config {
	return storage.Config{Engine: strings.ToLower(c.Storage.Engine), Dir: c.Storage.Dir}
}

// LoggerConfig converts to the logger settings.
func (c Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}
