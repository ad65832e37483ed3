package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultBudget != 600 || cfg.DefaultPreset != "balanced" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.CachePath != filepath.Join(Dir, "index.db") {
		t.Errorf("CachePath = %q", cfg.CachePath)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
defaultBudget: 1200
ignore:
  - "*.gen.go"
  - "testdata/*"
capabilities: [shell, mcp]
weights:
  review:
    safety: 0.5
    accuracy: 0.5
`
	if err := os.WriteFile(filepath.Join(root, Dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultBudget != 1200 {
		t.Errorf("DefaultBudget = %d", cfg.DefaultBudget)
	}
	if cfg.DefaultPreset != "balanced" {
		t.Errorf("unset preset should keep default, got %q", cfg.DefaultPreset)
	}
	if len(cfg.Ignore) != 2 {
		t.Errorf("Ignore = %v", cfg.Ignore)
	}
	if len(cfg.Capabilities) != 2 {
		t.Errorf("Capabilities = %v", cfg.Capabilities)
	}
	w, ok := cfg.Weights["review"]
	if !ok || w.Safety != 0.5 || w.Accuracy != 0.5 {
		t.Errorf("Weights = %+v", cfg.Weights)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, Dir, "config.yaml"), []byte("{{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root); err == nil {
		t.Error("malformed yaml should error")
	}
}

func TestCacheFile(t *testing.T) {
	cfg := Default()
	got := cfg.CacheFile("/proj")
	if got != filepath.Join("/proj", Dir, "index.db") {
		t.Errorf("CacheFile = %q", got)
	}

	cfg.CachePath = "/abs/cache.db"
	if cfg.CacheFile("/proj") != "/abs/cache.db" {
		t.Error("absolute cache path should be used as-is")
	}
}
