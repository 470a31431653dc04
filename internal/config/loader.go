package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	// Project config has the highest precedence.
	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// ProjectPath is the project config location, relative to the working
// directory.
var ProjectPath = filepath.Join(".batchplan", "config.json")

// GlobalPath returns ~/.batchplan/config.json.
func GlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".batchplan", "config.json"), nil
}

// LoadDefault loads configuration from GlobalPath and ProjectPath.
func LoadDefault() (*Config, error) {
	globalPath, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, ProjectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Missing files are silently skipped. Malformed JSON returns an error.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Concurrency is decoded separately so an explicit 0 (unlimited) can
	// override a limit set by a lower layer.
	var loaded struct {
		Config
		Concurrency *int `json:"concurrency"`
	}
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if loaded.Concurrency != nil {
		if *loaded.Concurrency < 0 {
			return fmt.Errorf("parsing %s: concurrency must not be negative", path)
		}
		base.Concurrency = *loaded.Concurrency
	}

	merge(base, &loaded.Config)
	return nil
}

// merge overlays the set fields of loaded onto base. Lists replace, task
// types merge by name with new types appended after the existing ones.
func merge(base, loaded *Config) {
	if len(loaded.Backends) > 0 {
		base.Backends = loaded.Backends
	}
	if len(loaded.Fallback) > 0 {
		base.Fallback = loaded.Fallback
	}

	for _, tt := range loaded.TaskTypes {
		replaced := false
		for i := range base.TaskTypes {
			if base.TaskTypes[i].Name == tt.Name {
				base.TaskTypes[i] = tt
				replaced = true
				break
			}
		}
		if !replaced {
			base.TaskTypes = append(base.TaskTypes, tt)
		}
	}

	if loaded.DefaultType != "" {
		base.DefaultType = loaded.DefaultType
	}
	if loaded.TestCommand != "" {
		base.TestCommand = loaded.TestCommand
	}
	if loaded.Deliverables != "" {
		base.Deliverables = loaded.Deliverables
	}
	if loaded.StorePath != "" {
		base.StorePath = loaded.StorePath
	}
}
