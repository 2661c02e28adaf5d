package main

import (
	"errors"
	"fmt"
	"io/fs"

	"evolens/internal/config"
	"evolens/internal/engine"
	"evolens/internal/snapshot"
)

const (
	defaultConfigPath = "evolens.yaml"
	defaultSchemaPath = "schema.yaml"
)

type globalOptions struct {
	configPath   string
	schemaPath   string
	snapshotPath string
	verbose      bool
}

type session struct {
	cfg     *config.ProjectConfig
	schema  *config.Schema
	handles engine.Handles
}

// load reads config, schema and snapshot. The default config and schema
// files are optional; a path given explicitly must exist.
func (o *globalOptions) load() (*session, error) {
	cfg, err := config.LoadProjectConfig(o.configPath)
	if err != nil {
		if !o.optional(err, o.configPath, defaultConfigPath) {
			return nil, err
		}
		cfg = config.Default()
	}

	schema, err := config.LoadSchema(o.schemaPath)
	if err != nil {
		if !o.optional(err, o.schemaPath, defaultSchemaPath) {
			return nil, err
		}
		schema = config.DefaultSchema()
	}

	path := o.snapshotPath
	if path == "" {
		path = cfg.Snapshot
	}
	if path == "" {
		return nil, fmt.Errorf("no snapshot: pass --snapshot or set snapshot in %s", o.configPath)
	}
	h, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, schema: schema, handles: engine.Handles(*h)}, nil
}

func (o *globalOptions) optional(err error, path, fallback string) bool {
	return path == fallback && errors.Is(err, fs.ErrNotExist)
}

func (o *globalOptions) engine() (*engine.Engine, error) {
	s, err := o.load()
	if err != nil {
		return nil, err
	}
	eng := engine.New(s.cfg, s.schema)
	eng.Attach(s.handles)
	return eng, nil
}
