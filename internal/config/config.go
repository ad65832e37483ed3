// Package config loads project-level settings for ctxprimer.
//
// Settings live in .ctxprimer/config.yaml at the project root. Every field
// is optional; a missing file means all defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ctxprimer/ctxprimer/internal/primer"
)

// Dir is the project-local state directory.
const Dir = ".ctxprimer"

// Config holds project-level settings.
type Config struct {
	// CachePath overrides where the index database lives, relative to the
	// project root unless absolute.
	CachePath string `yaml:"cachePath,omitempty"`

	// Ignore holds extra glob patterns excluded from scanning.
	Ignore []string `yaml:"ignore,omitempty"`

	// DefaultBudget is the primer token budget when --budget is not given.
	DefaultBudget int `yaml:"defaultBudget,omitempty"`

	// DefaultPreset is the weight preset when --preset is not given.
	DefaultPreset string `yaml:"defaultPreset,omitempty"`

	// Capabilities is the default capability set advertised to the primer.
	Capabilities []string `yaml:"capabilities,omitempty"`

	// Weights defines extra presets on top of the built-ins.
	Weights map[string]primer.Weights `yaml:"weights,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		CachePath:     filepath.Join(Dir, "index.db"),
		DefaultBudget: 600,
		DefaultPreset: "balanced",
		Capabilities:  []string{"shell"},
	}
}

// Load reads .ctxprimer/config.yaml under root, layering it over defaults.
// A missing file is not an error; a malformed one is.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, Dir, "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if file.CachePath != "" {
		cfg.CachePath = file.CachePath
	}
	if len(file.Ignore) > 0 {
		cfg.Ignore = file.Ignore
	}
	if file.DefaultBudget > 0 {
		cfg.DefaultBudget = file.DefaultBudget
	}
	if file.DefaultPreset != "" {
		cfg.DefaultPreset = file.DefaultPreset
	}
	if file.Capabilities != nil {
		cfg.Capabilities = file.Capabilities
	}
	if len(file.Weights) > 0 {
		cfg.Weights = file.Weights
	}
	return cfg, nil
}

// CacheFile resolves the index database path against the project root.
func (c Config) CacheFile(root string) string {
	if filepath.IsAbs(c.CachePath) {
		return c.CachePath
	}
	return filepath.Join(root, c.CachePath)
}

// OverridesFile is where project catalog overrides live.
func OverridesFile(root string) string {
	return filepath.Join(root, Dir, "catalog.json")
}
