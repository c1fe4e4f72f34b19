package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/cli/output"
	"github.com/leapstack-labs/vcol/internal/dag"
)

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	var levels bool

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show the evaluation order",
		Long: `Display every field in an order where each field comes after the
fields it references.

With --levels, fields are grouped by execution level instead: level 0
holds fields without dependencies, and each later level only depends on
earlier ones.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the evaluation order
  vcol order

  # Group fields by execution level
  vcol order --levels

  # Output as JSON
  vcol order --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOrder(cmd, levels)
		},
	}

	cmd.Flags().BoolVar(&levels, "levels", false, "Group fields by execution level")

	return cmd
}

func runOrder(cmd *cobra.Command, levels bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if err := cmdCtx.LoadEngine(); err != nil {
		return err
	}

	graph := cmdCtx.Engine.Graph()
	r := cmdCtx.Renderer

	if r.EffectiveMode() == output.ModeJSON {
		out := output.OrderOutput{Fields: graph.NodeCount(), Edges: graph.EdgeCount()}
		if levels {
			out.Levels = graph.Levels()
		} else {
			out.Order = fieldInfos(graph, cmdCtx.Engine.TopologicalOrder(), cmdCtx.Engine.Logic().Get)
		}
		return r.JSON(out)
	}

	if levels {
		orderLevels(r, graph)
	} else {
		orderTable(r, graph, cmdCtx.Engine.TopologicalOrder())
	}
	return nil
}

func fieldInfos(graph *dag.Graph, names []string, expr func(string) ([]string, bool)) []output.FieldInfo {
	out := make([]output.FieldInfo, 0, len(names))
	for _, name := range names {
		node, _ := graph.Node(name)
		toks, _ := expr(name)
		out = append(out, output.FieldInfo{
			Name:       name,
			Real:       node.Real,
			Expression: toks,
			DependsOn:  node.Edges,
			UsedBy:     graph.Dependents(name),
		})
	}
	return out
}

func kindOf(real bool) string {
	if real {
		return "real"
	}
	return "derived"
}

func orderTable(r *output.Renderer, graph *dag.Graph, order []string) {
	r.Header(1, "Evaluation Order")

	rows := make([][]string, 0, len(order))
	for i, name := range order {
		node, _ := graph.Node(name)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			name,
			kindOf(node.Real),
			output.FormatList(node.Edges),
		})
	}
	r.Table([]string{"#", "field", "kind", "depends on"}, rows)

	summary(r, graph)
}

func orderLevels(r *output.Renderer, graph *dag.Graph) {
	styles := r.Styles()
	mode := r.EffectiveMode()

	r.Header(1, "Execution Levels")
	for i, level := range graph.Levels() {
		title := fmt.Sprintf("Level %d", i)
		if i == 0 {
			title += " (no dependencies)"
		}

		names := make([]string, len(level))
		for j, name := range level {
			node, _ := graph.Node(name)
			names[j] = name
			if mode == output.ModeText && node.Real {
				names[j] = styles.Real.Render(name)
			} else if mode == output.ModeText {
				names[j] = styles.Derived.Render(name)
			}
		}

		switch mode {
		case output.ModeText:
			r.Printf("%s %s\n", styles.Header2.Render(title+":"), strings.Join(names, " "))
		case output.ModeCSV:
			r.Printf("%d,%s\n", i, strings.Join(names, " "))
		default:
			r.Println(output.FormatKeyValue(title, strings.Join(names, ", ")))
		}
	}

	if mode != output.ModeCSV {
		summary(r, graph)
	}
}

func summary(r *output.Renderer, graph *dag.Graph) {
	if r.EffectiveMode() == output.ModeCSV {
		return
	}
	r.Println("")
	r.Println(r.Muted(fmt.Sprintf("Total: %d fields, %d dependencies", graph.NodeCount(), graph.EdgeCount())))
}
