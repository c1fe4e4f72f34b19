package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/cli/output"
	"github.com/leapstack-labs/vcol/internal/functions"
)

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List available functions",
		Long: `List the functions expressions can call with f:<name>:<arity>:
the NaN-skipping built-ins and every function defined in the
functions directory (.star files, named <file>.<function>).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return renderFunctions(cmdCtx.Renderer, cmdCtx.Engine.Functions().List())
		},
	}
}

func renderFunctions(r *output.Renderer, infos []functions.Info) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]output.FunctionInfo, len(infos))
		for i, info := range infos {
			out[i] = output.FunctionInfo{Name: info.Name, Source: info.Source}
		}
		return r.JSON(out)
	}

	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{info.Name, info.Source}
	}
	r.Header(1, "Functions")
	r.Table([]string{"name", "source"}, rows)
	return nil
}
