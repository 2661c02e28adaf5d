package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"evolens/internal/config"
)

func initCmd(opts *globalOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config and schema files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(dir, opts.snapshotPath)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write into")
	return cmd
}

func runInit(dir, snapshotPath string) error {
	configPath := filepath.Join(dir, defaultConfigPath)
	schemaPath := filepath.Join(dir, defaultSchemaPath)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	cfg := config.Default()
	cfg.Snapshot = snapshotPath
	configContents, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	schemaContents, err := yaml.Marshal(config.DefaultSchema())
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	if err := os.WriteFile(configPath, configContents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, schemaContents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}

	return nil
}
