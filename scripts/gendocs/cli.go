package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/vcol/internal/cli"
	"github.com/leapstack-labs/vcol/internal/cli/config"
)

// commandInputs lists the configuration keys each command reads.
var commandInputs = map[string][]string{
	"check":     {"logic_file"},
	"order":     {"logic_file", "functions_dir"},
	"deps":      {"logic_file", "functions_dir"},
	"functions": {"functions_dir"},
	"eval":      {"logic_file", "functions_dir", "source.type", "source.table", "source.csv", "workers", "state_path"},
	"runs":      {"state_path"},
}

// sourceKeys are the source settings that have no flag of their own.
var sourceKeys = []string{"source.type", "source.database", "source.table", "source.csv", "source.password"}

// generateCLIDocs writes index.md and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	if err := writePage(outDir, "index.md", cliIndex(root)); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}

	for _, cmd := range documented(root) {
		if err := writePage(outDir, cmd.Name()+".md", commandPage(cmd)); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
	}
	return nil
}

func writePage(outDir, name string, w *MarkdownWriter) error {
	if err := os.WriteFile(filepath.Join(outDir, name), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated %s", name)
	return nil
}

// documented returns the commands that get a page.
func documented(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

func cliIndex(root *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for vcol")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("vcol validates logic files, shows evaluation order and dependencies, and computes derived fields from a SQL or CSV source.")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/vcol/cmd/vcol@latest\nvcol <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Configuration Sources")
	w.Paragraph("Settings are merged from lowest to highest precedence: built-in defaults, " +
		InlineCode("vcol.yaml") + ", " + InlineCode("VCOL_") + " environment variables, then flags. " +
		"A double underscore in a variable name descends into a section. With " + InlineCode("--env") +
		", the matching " + InlineCode("environments") + " entry is merged over the top-level settings.")

	var envRows [][]string
	root.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if key, ok := config.FlagConfigKey(f.Name); ok {
			envRows = append(envRows, []string{InlineCode(config.EnvVar(key)), InlineCode("--" + f.Name), cleanDescription(f.Usage)})
		}
	})
	for _, key := range sourceKeys {
		envRows = append(envRows, []string{InlineCode(config.EnvVar(key)), "", "Sets " + InlineCode(key)})
	}
	w.Table([]string{"Variable", "Flag", "Description"}, envRows)

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Any error, including an invalid logic file; details go to stderr"},
	})
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", usageLine(cmd))

	if keys := commandInputs[cmd.Name()]; len(keys) > 0 {
		w.Header(2, "Configuration")
		w.Paragraph("Read from " + InlineCode("vcol.yaml") + " unless overridden:")
		w.Table([]string{"Key", "Flag", "Environment"}, inputRows(cmd, keys))
	}

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w
}

func usageLine(cmd *cobra.Command) string {
	line := cmd.UseLine()
	if !strings.HasPrefix(line, "vcol ") {
		line = "vcol " + line
	}
	return line
}

// inputRows pairs each key with the flag that sets it, if any.
func inputRows(cmd *cobra.Command, keys []string) [][]string {
	flags := make(map[string]string)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := config.FlagConfigKey(f.Name); ok {
			flags[key] = InlineCode("--" + f.Name)
		}
	})
	cmd.InheritedFlags().VisitAll(func(f *pflag.Flag) {
		if key, ok := config.FlagConfigKey(f.Name); ok {
			flags[key] = InlineCode("--" + f.Name)
		}
	})

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{InlineCode(key), flags[key], InlineCode(config.EnvVar(key))})
	}
	return rows
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name += ", " + InlineCode("-"+f.Shorthand)
		}
		def := f.DefValue
		if def != "" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{name, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Default", "Description"}, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first || len(indent) < len(prefix) {
			prefix = indent
			first = false
		}
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
