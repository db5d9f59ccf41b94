// Package config loads the tool's own settings, which are distinct
// from the declared configuration documents being reconciled.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings carries defaults a user would otherwise repeat on every
// invocation. Flags override settings, settings override environment.
type Settings struct {
	Root        string `json:"root"`
	DconfBinary string `json:"dconf_binary"`
	Color       string `json:"color"`
	ApplyPolicy string `json:"apply_policy"`
	BackupDir   string `json:"backup_dir"`
}

// Default returns the built-in settings, before any environment or
// file overrides.
func Default() *Settings {
	return &Settings{
		Root:        "/",
		Color:       "auto",
		ApplyPolicy: "fail-fast",
	}
}

// Load builds settings from defaults, DCONFSYNC_* environment
// variables and the optional JSON settings file. A missing file is
// fine; a malformed one is an error. An empty configPath falls back to
// DCONFSYNC_CONFIG and then the user config directory.
func Load(configPath string) (*Settings, error) {
	cfg := Default()
	if bin := os.Getenv("DCONFSYNC_DCONF_BIN"); bin != "" {
		cfg.DconfBinary = bin
	}
	if dir := os.Getenv("DCONFSYNC_BACKUP_DIR"); dir != "" {
		cfg.BackupDir = dir
	}
	if root := os.Getenv("DCONFSYNC_ROOT"); root != "" {
		cfg.Root = root
	}

	if configPath == "" {
		configPath = os.Getenv("DCONFSYNC_CONFIG")
		if configPath == "" {
			configPath = defaultPath()
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", configPath, err)
		}
	}

	return cfg, nil
}

func defaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dconfsync", "config.json")
	}
	return "dconfsync.json"
}
