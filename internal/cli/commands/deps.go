package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/cli/output"
)

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <field>...",
		Short: "Show what computing fields requires",
		Long: `Display the real fields the source must provide and the minimal
evaluation order needed to compute the given fields.`,
		Example: `  # What does l need?
  vcol deps l

  # Several targets at once, as JSON
  vcol deps l o --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args)
		},
	}
}

func runDeps(cmd *cobra.Command, targets []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if err := cmdCtx.LoadEngine(); err != nil {
		return err
	}

	real, order, err := cmdCtx.Engine.RequiredFields(targets)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.DepsOutput{Targets: targets, Real: real, Order: order})
	case output.ModeCSV:
		rows := make([][]string, 0, len(order))
		for _, name := range order {
			node, _ := cmdCtx.Engine.Graph().Node(name)
			rows = append(rows, []string{name, kindOf(node.Real)})
		}
		r.Table([]string{"field", "kind"}, rows)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Dependencies of "+output.FormatList(targets)))
		r.Println("")
		r.Println(output.FormatKeyValue("Real fields", output.FormatList(real)))
		r.Println(output.FormatKeyValue("Evaluation order", output.FormatList(order)))
	default:
		styles := r.Styles()
		r.Header(1, "Dependencies of "+output.FormatList(targets))
		r.Printf("%s %s\n", styles.Muted.Render("real fields:"), styles.Real.Render(output.FormatList(real)))
		r.Printf("%s %s\n", styles.Muted.Render("order:"), output.FormatList(order))
	}
	return nil
}
