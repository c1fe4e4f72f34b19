package config

import (
	"fmt"
	"slices"
)

var (
	validOutputs    = []string{"auto", "text", "markdown", "json", "csv"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.LogicFile == "" {
		return fmt.Errorf("logic_file is required")
	}
	if c.OutputFormat != "" && !slices.Contains(validOutputs, c.OutputFormat) {
		return fmt.Errorf("invalid output %q (want one of %v)", c.OutputFormat, validOutputs)
	}
	if c.LogLevel != "" && !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (want one of %v)", c.LogLevel, validLogLevels)
	}
	if c.LogFormat != "" && !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (want one of %v)", c.LogFormat, validLogFormats)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Source != nil {
		if err := c.Source.Validate(); err != nil {
			return fmt.Errorf("invalid source configuration: %w", err)
		}
	}
	return nil
}
