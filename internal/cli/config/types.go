// Package config provides configuration management for the vcol CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields. The shared SourceConfig is re-exported here via
// a type alias for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/vcol/internal/config"
)

// SourceConfig is an alias for the shared source configuration.
type SourceConfig = sharedcfg.SourceConfig

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`

	LogicFile    string               `koanf:"logic_file"`
	FunctionsDir string               `koanf:"functions_dir"`
	Source       *SourceConfig        `koanf:"source"`
	Environment  string               `koanf:"environment"`
	Environments map[string]EnvConfig `koanf:"environments"`
	OutputFormat string               `koanf:"output"`
	LogLevel     string               `koanf:"log_level"`
	LogFormat    string               `koanf:"log_format"`
	StatePath    string               `koanf:"state_path"`
	Workers      int                  `koanf:"workers"`
	Verbose      bool                 `koanf:"verbose"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	LogicFile string        `koanf:"logic_file"`
	Source    *SourceConfig `koanf:"source"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultLogicFile    = sharedcfg.DefaultLogicFile
	DefaultFunctionsDir = sharedcfg.DefaultFunctionsDir
	DefaultOutput       = sharedcfg.DefaultOutput // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel     = sharedcfg.DefaultLogLevel
	DefaultLogFormat    = sharedcfg.DefaultLogFormat
	DefaultStatePath    = sharedcfg.DefaultStatePath
	DefaultSourceType   = "duckdb"
)
