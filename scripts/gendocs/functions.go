package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/vcol/internal/config"
	"github.com/leapstack-labs/vcol/internal/functions"
	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/leapstack-labs/vcol/pkg/token"
)

var builtinDocs = map[string]string{
	"nanmean":   "Mean of the non-NaN arguments",
	"nanmedian": "Median of the non-NaN arguments",
	"nansum":    "Sum of the non-NaN arguments",
	"nanmin":    "Minimum of the non-NaN arguments",
	"nanmax":    "Maximum of the non-NaN arguments",
}

// generateExpressionDocs generates the expression language reference:
// operators, token forms and built-in functions.
func generateExpressionDocs(outDir string) error {
	log.Printf("Generating expression docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Expressions", "Postfix expression reference")
	w.GeneratedMarker()

	w.Header(1, "Expressions")
	w.Paragraph("Each field of the logic file maps to a postfix expression: a list of tokens evaluated on a stack. An empty list marks a real field read from the source.")

	example, err := config.MarshalLogic(core.LogicFromMap(map[string][]string{
		"a":     {},
		"b":     {},
		"mean":  {"a", "b", "f:nanmean:2"},
		"ratio": {"a", "b", "/", "c:100", "*"},
	}))
	if err != nil {
		return fmt.Errorf("failed to render example logic: %w", err)
	}
	w.CodeBlock("yaml", string(example))

	w.Header(2, "Tokens")
	w.Table([]string{"Form", "Meaning"}, [][]string{
		{InlineCode("name"), "Push the value of a field"},
		{InlineCode("c:<number>"), "Push a constant"},
		{InlineCode("f:<name>:<arity>"), "Pop arity values, push the function result"},
		{"operator", "Pop two values, push the result"},
	})

	w.Header(2, "Operators")
	w.Paragraph("Comparisons yield 1 or 0. NaN compares unequal to everything.")
	var ops [][]string
	for _, op := range token.Operators() {
		ops = append(ops, []string{InlineCode(string(op))})
	}
	w.Table([]string{"Operator"}, ops)

	w.Header(2, "Built-in Functions")
	w.Paragraph("Built-ins reduce their arguments row by row, skipping NaN. A row where every argument is NaN yields NaN.")
	var rows [][]string
	for _, info := range functions.NewRegistry().List() {
		if info.Source != functions.SourceBuiltin {
			continue
		}
		rows = append(rows, []string{InlineCode(info.Name), builtinDocs[info.Name]})
	}
	w.Table([]string{"Function", "Description"}, rows)

	w.Header(2, "Starlark Functions")
	w.Paragraph("Every top-level function of `<functions_dir>/<module>.star` is callable as `f:<module>.<function>:<arity>`. Names starting with an underscore stay private.")
	w.CodeBlock("python", `def ratio(a, b):
    if b == 0:
        return float("nan")
    return a / b`)

	filename := filepath.Join(outDir, "expressions.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated expressions.md")
	return nil
}
