// Package commands implements the vcol subcommands.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/cli/config"
	"github.com/leapstack-labs/vcol/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/vcol/internal/config"
	"github.com/leapstack-labs/vcol/internal/engine"
	"github.com/leapstack-labs/vcol/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an unconfigured engine
// holding the built-in and Starlark functions.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := engine.New(engine.Config{
		FunctionsDir: cmdCtx.Cfg.FunctionsDir,
		Logger:       cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	cmdCtx.Engine = eng
	return cmdCtx, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// LoadLogic reads the configured logic file.
func (c *CommandContext) LoadLogic() (*core.Logic, error) {
	logic, err := sharedcfg.LoadLogic(c.Cfg.LogicFile)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("read logic file", "path", c.Cfg.LogicFile, "fields", logic.Len())
	return logic, nil
}

// LoadEngine reads the logic file and loads it into the engine.
func (c *CommandContext) LoadEngine() error {
	logic, err := c.LoadLogic()
	if err != nil {
		return err
	}
	if err := c.Engine.Load(logic); err != nil {
		return fmt.Errorf("%s: %w\nHint: run 'vcol check' for details", c.Cfg.LogicFile, err)
	}
	return nil
}

// getConfig returns the current configuration, or the defaults when none
// was loaded (commands constructed directly in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	source := &config.SourceConfig{Type: config.DefaultSourceType}
	source.ApplyDefaults()
	return &config.Config{
		LogicFile:    config.DefaultLogicFile,
		FunctionsDir: config.DefaultFunctionsDir,
		Source:       source,
		OutputFormat: config.DefaultOutput,
		LogLevel:     config.DefaultLogLevel,
		LogFormat:    config.DefaultLogFormat,
	}
}
