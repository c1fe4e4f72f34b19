// Package config provides shared configuration types for vcol.
// This package is decoupled from CLI concerns: it holds the source
// definition, project file discovery and the logic file format.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/vcol/pkg/adapter"
)

// SourceConfig describes where real fields are read from.
type SourceConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Table holding the real fields.
	Table string `koanf:"table"`

	// CSV, when set, is loaded into Table before fetching.
	CSV string `koanf:"csv"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// DefaultSchemaForType returns the default schema for a database type.
func DefaultSchemaForType(dbType string) string {
	if strings.ToLower(dbType) == "postgres" {
		return "public"
	}
	return "main"
}

// ApplyDefaults fills in the schema, port and table defaults for the
// source type.
func (s *SourceConfig) ApplyDefaults() {
	if s == nil {
		return
	}
	s.Type = strings.ToLower(s.Type)
	if s.Schema == "" {
		s.Schema = DefaultSchemaForType(s.Type)
	}
	if s.Type == "postgres" && s.Port == 0 {
		s.Port = 5432
	}
	if s.Table == "" {
		s.Table = DefaultTable
	}
}

// Validate checks if the source configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (s *SourceConfig) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("source type is required")
	}

	if !adapter.IsRegistered(strings.ToLower(s.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      s.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("source port %d out of range", s.Port)
	}
	return nil
}

// AdapterConfig converts the source into an adapter.Config. For file-based
// databases Database is the path.
func (s *SourceConfig) AdapterConfig() adapter.Config {
	cfg := adapter.Config{
		Type:     strings.ToLower(s.Type),
		Database: s.Database,
		Host:     s.Host,
		Port:     s.Port,
		Username: s.User,
		Password: s.Password,
		Schema:   s.Schema,
		Options:  s.Options,
	}
	if cfg.Type != "postgres" {
		cfg.Path = s.Database
	}
	return cfg
}

// ProjectConfig is the project-level subset of the CLI configuration.
type ProjectConfig struct {
	LogicFile    string        `koanf:"logic_file"`
	FunctionsDir string        `koanf:"functions_dir"`
	Source       *SourceConfig `koanf:"source"`
}

// ApplyDefaults applies default values to a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c.LogicFile == "" {
		c.LogicFile = DefaultLogicFile
	}
	if c.FunctionsDir == "" {
		c.FunctionsDir = DefaultFunctionsDir
	}
}
