package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMinCardImages    = 10
	DefaultMaxAncestorDepth = 8
	DefaultMaxNodes         = 20000
)

type ProjectConfig struct {
	Version  int         `yaml:"version"`
	Snapshot string      `yaml:"snapshot"`
	Scan     ScanConfig  `yaml:"scan"`
	Assets   AssetConfig `yaml:"assets"`
	Host     HostConfig  `yaml:"host"`
}

// ScanConfig tunes the on-screen card heuristic. The thresholds were fitted
// against one UI layout and are not invariants.
type ScanConfig struct {
	Enabled          *bool `yaml:"enabled"`
	MinCardImages    int   `yaml:"min_card_images"`
	MaxAncestorDepth int   `yaml:"max_ancestor_depth"`
	MaxNodes         int   `yaml:"max_nodes"`
}

func (s ScanConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type AssetConfig struct {
	FallbackAtlases []string `yaml:"fallback_atlases"`
	NamePrefixes    []string `yaml:"name_prefixes"`
}

type HostConfig struct {
	EnumPayloadOffset int `yaml:"enum_payload_offset"`
}

func Default() *ProjectConfig {
	cfg := &ProjectConfig{Version: 1}
	applyDefaults(cfg)
	return cfg
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.Scan.MinCardImages == 0 {
		cfg.Scan.MinCardImages = DefaultMinCardImages
	}
	if cfg.Scan.MaxAncestorDepth == 0 {
		cfg.Scan.MaxAncestorDepth = DefaultMaxAncestorDepth
	}
	if cfg.Scan.MaxNodes == 0 {
		cfg.Scan.MaxNodes = DefaultMaxNodes
	}
	if cfg.Assets.FallbackAtlases == nil {
		cfg.Assets.FallbackAtlases = []string{"items", "weapons", "UI"}
	}
	if cfg.Assets.NamePrefixes == nil {
		cfg.Assets.NamePrefixes = []string{"", "_"}
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Scan.MinCardImages < 1 {
		return fmt.Errorf("scan.min_card_images must be positive")
	}
	if cfg.Scan.MaxAncestorDepth < 1 {
		return fmt.Errorf("scan.max_ancestor_depth must be positive")
	}
	if cfg.Scan.MaxNodes < 1 {
		return fmt.Errorf("scan.max_nodes must be positive")
	}
	if cfg.Host.EnumPayloadOffset < 0 {
		return fmt.Errorf("host.enum_payload_offset must not be negative")
	}

	seen := make(map[string]struct{})
	for i, atlas := range cfg.Assets.FallbackAtlases {
		if strings.TrimSpace(atlas) == "" {
			return fmt.Errorf("fallback atlas %d name is required", i)
		}
		key := strings.ToLower(atlas)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate fallback atlas: %s", atlas)
		}
		seen[key] = struct{}{}
	}

	return nil
}
