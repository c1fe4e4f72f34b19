package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/leapstack-labs/vcol/internal/config"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix is the prefix of configuration environment variables.
// VCOL_LOG_LEVEL sets log_level; a double underscore descends into a
// section, so VCOL_SOURCE__PASSWORD sets source.password.
const envPrefix = "VCOL_"

// flagKeys maps CLI flag names to config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"logic":         "logic_file",
	"functions-dir": "functions_dir",
	"env":           "environment",
	"output":        "output",
	"log-level":     "log_level",
	"log-format":    "log_format",
	"state":         "state_path",
	"workers":       "workers",
	"verbose":       "verbose",
}

// FlagConfigKey returns the config key set by a CLI flag.
func FlagConfigKey(flag string) (string, bool) {
	key, ok := flagKeys[flag]
	return key, ok
}

// EnvVar returns the environment variable that sets a config key.
func EnvVar(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findProjectRootUpward searches upward from startDir for a vcol config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if sharedcfg.FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit --config file
//  2. Directory of --logic, if it holds a config file
//  3. Search upward from CWD for vcol.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	if flags != nil && flags.Changed("logic") {
		if logic, _ := flags.GetString("logic"); logic != "" {
			if abs, err := filepath.Abs(logic); err == nil {
				if dir := filepath.Dir(abs); sharedcfg.FindConfigFile(dir) != "" {
					return dir
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// flagPath returns the absolute value of a path flag if it was explicitly set.
func flagPath(flags *pflag.FlagSet, name string) string {
	if flags == nil || flags.Lookup(name) == nil || !flags.Changed(name) {
		return ""
	}
	v, _ := flags.GetString(name)
	if v == "" {
		return ""
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return v
	}
	return abs
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile, flags)

	// Path flags are relative to CWD, not to the project root.
	flagLogic := flagPath(flags, "logic")
	flagFunctions := flagPath(flags, "functions-dir")
	flagState := flagPath(flags, "state")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"logic_file":    DefaultLogicFile,
		"functions_dir": DefaultFunctionsDir,
		"output":        DefaultOutput,
		"log_level":     DefaultLogLevel,
		"log_format":    DefaultLogFormat,
		"state_path":    DefaultStatePath,
		"workers":       0,
		"verbose":       false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = sharedcfg.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (VCOL_ prefix)
	// Transform: VCOL_LOG_LEVEL -> log_level, VCOL_SOURCE__TYPE -> source.type
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Apply environment-specific overrides
	if cfg.Environment != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[cfg.Environment]; ok {
			if envCfg.LogicFile != "" && flagLogic == "" {
				cfg.LogicFile = envCfg.LogicFile
			}
			if envCfg.Source != nil {
				cfg.Source = MergeSourceConfig(cfg.Source, envCfg.Source)
			}
		}
	}

	// 6. Resolve paths
	if flagLogic != "" {
		cfg.LogicFile = flagLogic
	} else {
		cfg.LogicFile = resolvePathRelativeTo(cfg.LogicFile, projectRoot)
	}
	if flagFunctions != "" {
		cfg.FunctionsDir = flagFunctions
	} else {
		cfg.FunctionsDir = resolvePathRelativeTo(cfg.FunctionsDir, projectRoot)
	}

	if flagState != "" {
		cfg.StatePath = flagState
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	if cfg.Source == nil {
		cfg.Source = &SourceConfig{}
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = DefaultSourceType
	}
	cfg.Source.ApplyDefaults()
	expandSourceEnvVars(cfg.Source)
	if cfg.Source.Type != "postgres" {
		cfg.Source.Database = resolvePathRelativeTo(cfg.Source.Database, projectRoot)
	}
	cfg.Source.CSV = resolvePathRelativeTo(cfg.Source.CSV, projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandSourceEnvVars expands environment variables in sensitive source fields.
func expandSourceEnvVars(s *SourceConfig) {
	if s == nil {
		return
	}
	s.Password = expandEnvVars(s.Password)
	s.User = expandEnvVars(s.User)
	s.Host = expandEnvVars(s.Host)
	s.Database = expandEnvVars(s.Database)
	s.CSV = expandEnvVars(s.CSV)
}

// MergeSourceConfig merges two source configs, with override taking precedence.
func MergeSourceConfig(base, override *SourceConfig) *SourceConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	if override.Table != "" {
		merged.Table = override.Table
	}
	if override.CSV != "" {
		merged.CSV = override.CSV
	}

	for k, v := range override.Options {
		merged.Options[k] = v
	}

	return &merged
}
