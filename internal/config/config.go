// Package config loads and saves dirtabase's user-level settings: the
// default DB location, whether log output is colorized, and the shell used
// to run CmdImpure steps. It follows the same JSON-file-under-a-dotdir,
// merge-with-defaults shape the teacher uses for its own config package.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds every user-level dirtabase setting.
type Config struct {
	DB    DBConfig    `json:"db"`
	Log   LogConfig   `json:"log"`
	Shell ShellConfig `json:"shell"`
}

// DBConfig holds the default on-disk database location.
type DBConfig struct {
	Path string `json:"path"`
}

// LogConfig holds log output preferences.
type LogConfig struct {
	Color bool `json:"color"`
}

// ShellConfig holds the default external shell used for CmdImpure steps.
type ShellConfig struct {
	Path string `json:"path"`
}

// DefaultConfig returns a Config with sensible defaults: a DB under the
// user's home directory, color enabled, and bash as the shell.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DB:    DBConfig{Path: filepath.Join(home, ".dirtabase", "db")},
		Log:   LogConfig{Color: true},
		Shell: ShellConfig{Path: "bash"},
	}
}

// configDir returns dirtabase's user-level config directory.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".dirtabase"), nil
}

// configPath returns the path to dirtabase's config file.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LedgerPath returns the path to the pipeline run-history file, a sibling
// of the config file rather than something kept inside any one DB's own
// cas/cache/labels/tmp layout, since a single ledger spans DBs.
func LedgerPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ledger.bbolt"), nil
}

// Load reads the config file, falling back to defaults for a missing file
// entirely and for any string setting the file leaves unset or empty.
// log.color always takes the file's value, which is false when the file
// omits it.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := configPath()
	if err != nil {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var onDisk Config
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	merge(cfg, &onDisk)
	return cfg, nil
}

// Save writes cfg to the user's config file, creating its parent directory
// if necessary.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetValue retrieves a setting by dotted key, e.g. "db.path" or "log.color".
func GetValue(cfg *Config, key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}
	switch section {
	case "db":
		if field == "path" {
			return cfg.DB.Path, nil
		}
	case "log":
		if field == "color" {
			return fmt.Sprintf("%t", cfg.Log.Color), nil
		}
	case "shell":
		if field == "path" {
			return cfg.Shell.Path, nil
		}
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// SetValue sets a setting by dotted key, mutating cfg in place for the
// caller to Save.
func SetValue(cfg *Config, key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}
	switch section {
	case "db":
		if field == "path" {
			cfg.DB.Path = value
			return nil
		}
	case "log":
		if field == "color" {
			cfg.Log.Color = value == "true"
			return nil
		}
	case "shell":
		if field == "path" {
			cfg.Shell.Path = value
			return nil
		}
	}
	return fmt.Errorf("unknown config key: %s", key)
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid config key %q: expected section.field", key)
	}
	return parts[0], parts[1], nil
}

// merge overlays every field onDisk sets onto dst's defaults. Strings only
// override when non-empty; bools always override since a zero value is
// indistinguishable from "not set" in JSON.
func merge(dst, onDisk *Config) {
	if onDisk.DB.Path != "" {
		dst.DB.Path = onDisk.DB.Path
	}
	if onDisk.Shell.Path != "" {
		dst.Shell.Path = onDisk.Shell.Path
	}
	dst.Log.Color = onDisk.Log.Color
}
