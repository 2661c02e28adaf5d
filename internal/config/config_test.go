package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Snapshot != "run.yaml" {
			t.Fatalf("expected snapshot path, got %q", cfg.Snapshot)
		}
		if cfg.Scan.MinCardImages != 6 || cfg.Scan.MaxAncestorDepth != 4 {
			t.Fatalf("expected scan thresholds from file, got %+v", cfg.Scan)
		}
		if cfg.Scan.MaxNodes != DefaultMaxNodes {
			t.Fatalf("expected default max nodes, got %d", cfg.Scan.MaxNodes)
		}
		if !cfg.Scan.IsEnabled() {
			t.Fatalf("expected scanning enabled by default")
		}
		if len(cfg.Assets.NamePrefixes) != 2 || cfg.Assets.NamePrefixes[1] != "ui_" {
			t.Fatalf("expected name prefixes from file, got %v", cfg.Assets.NamePrefixes)
		}
	})

	t.Run("scan can be disabled", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nscan:\n  enabled: false\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Scan.IsEnabled() {
			t.Fatalf("expected scanning disabled")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "version: 2\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("negative thresholds", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nscan:\n  min_card_images: -1\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("empty fallback atlas", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nassets:\n  fallback_atlases: [items, \" \"]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("duplicate fallback atlases", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nassets:\n  fallback_atlases: [items, Items]\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "version: [\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := validateProjectConfig(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Scan.MinCardImages != DefaultMinCardImages || cfg.Scan.MaxAncestorDepth != DefaultMaxAncestorDepth {
		t.Fatalf("unexpected scan defaults: %+v", cfg.Scan)
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
