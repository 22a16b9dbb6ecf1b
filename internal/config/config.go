// Package config loads bob's process-wide configuration: the default
// backend, tracing settings, session-storage overrides, and the active
// backend selection mutated by /backend at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dioko-ai/bob/internal/log"
	viperlib "github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// allowedBackends is the allow-list of backend identifiers this core
// actually names in session_meta.backend.
var allowedBackends = []string{"claude", "amp", "codex", "gemini"}

// TracingConfig is the on-disk form of internal/tracing.Config.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	FilePath string `mapstructure:"file_path"`
	Debug    bool   `mapstructure:"debug"`
}

// SessionStorageConfig is the session_storage section of the config file.
type SessionStorageConfig struct {
	// BaseDir is loaded from session_storage.base_dir. internal/sessionstore
	// does not read it: sessions always live under $HOME/.bob/sessions, with
	// the legacy root as a read fallback.
	BaseDir string `mapstructure:"base_dir"`
}

// Config holds every value bob reads from its config file and flags.
type Config struct {
	Backend        string               `mapstructure:"backend"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
	SessionStorage SessionStorageConfig `mapstructure:"session_storage"`
}

// Defaults returns bob's baked-in configuration, used before any config
// file is read and to seed viper's defaults.
func Defaults() Config {
	return Config{
		Backend: "claude",
		Tracing: TracingConfig{
			Enabled:  false,
			FilePath: "",
			Debug:    false,
		},
		SessionStorage: SessionStorageConfig{
			BaseDir: "",
		},
	}
}

// NewViper returns a fresh viper instance seeded with Defaults(), for
// cmd/ to bind cobra persistent flags to before calling LoadWith. A fresh
// instance per process invocation (rather than one long-lived package
// singleton) keeps repeated Load calls — as happen across this package's
// own tests — independent of each other.
func NewViper() *viperlib.Viper {
	v := viperlib.New()
	d := Defaults()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.debug", d.Tracing.Debug)
	v.SetDefault("session_storage.base_dir", d.SessionStorage.BaseDir)
	return v
}

// Load is LoadWith against a fresh NewViper() instance, the common case
// for any caller that has no flags to bind beforehand.
func Load(explicitPath string) (Config, error) {
	return LoadWith(NewViper(), explicitPath)
}

// LoadWith resolves the config file (explicit path, then
// ./.bob/config.yaml, then $HOME/.config/bob/config.yaml), reads it into
// v, writes a default file if none exists anywhere, and unmarshals the
// result. v is expected to already carry Defaults() (via NewViper) plus
// any flag bindings the caller applied.
func LoadWith(v *viperlib.Viper, explicitPath string) (Config, error) {
	switch {
	case explicitPath != "":
		v.SetConfigFile(explicitPath)
	default:
		if _, err := os.Stat(".bob/config.yaml"); err == nil {
			v.SetConfigFile(".bob/config.yaml")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return Config{}, fmt.Errorf("resolving home directory: %w", err)
			}
			v.AddConfigPath(filepath.Join(home, ".config", "bob"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viperlib.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := ".bob/config.yaml"
			if writeErr := WriteDefault(defaultPath); writeErr == nil {
				v.SetConfigFile(defaultPath)
				_ = v.ReadInConfig()
				log.Info(log.CatConfig, "config loaded", "path", defaultPath)
			}
		} else {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	} else {
		log.Info(log.CatConfig, "config loaded", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes Defaults() as YAML to path if path does not already
// exist, creating its parent directory as needed.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ValidateBackend rejects a backend identifier outside allowedBackends.
// An empty string is accepted, meaning "unset, fall back to Defaults".
func ValidateBackend(backend string) error {
	if backend == "" {
		return nil
	}
	for _, b := range allowedBackends {
		if backend == b {
			return nil
		}
	}
	return fmt.Errorf("backend must be one of %v, got %q", allowedBackends, backend)
}
