package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/vcol/internal/cli/config"
	"github.com/leapstack-labs/vcol/pkg/adapter"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "project" or "source"
}

// getConfigSchema returns the keys of vcol.yaml. It mirrors
// internal/cli/config.Config and internal/config.SourceConfig.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "logic_file", Type: "string", Default: config.DefaultLogicFile, Description: "Logic file mapping fields to postfix expressions", Category: "project"},
		{Name: "functions_dir", Type: "string", Default: config.DefaultFunctionsDir, Description: "Directory of Starlark function modules", Category: "project"},
		{Name: "state_path", Type: "string", Default: config.DefaultStatePath, Description: "Run history database (empty disables history)", Category: "project"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json, csv", Category: "project"},
		{Name: "log_level", Type: "string", Default: config.DefaultLogLevel, Description: "Log level: debug, info, warn, error", Category: "project"},
		{Name: "log_format", Type: "string", Default: config.DefaultLogFormat, Description: "Log format: text, json", Category: "project"},
		{Name: "workers", Type: "int", Default: "0", Description: "Row partitions evaluated concurrently (0 evaluates in one pass)", Category: "project"},
		{Name: "environment", Type: "string", Description: "Selects an entry of environments", Category: "project"},

		{Name: "type", Type: "string", Default: config.DefaultSourceType, Description: "Source adapter", Category: "source"},
		{Name: "database", Type: "string", Description: "File path (duckdb, sqlite) or database name (postgres); empty is in-memory", Category: "source"},
		{Name: "host", Type: "string", Default: "localhost", Description: "Database host (postgres)", Category: "source"},
		{Name: "port", Type: "int", Default: "5432", Description: "Database port (postgres)", Category: "source"},
		{Name: "user", Type: "string", Description: "Database username (postgres)", Category: "source"},
		{Name: "password", Type: "string", Description: "Database password (postgres); supports ${VAR}", Category: "source"},
		{Name: "schema", Type: "string", Description: "Schema of unqualified tables (main, or public for postgres)", Category: "source"},
		{Name: "table", Type: "string", Default: "readings", Description: "Table holding the real fields", Category: "source"},
		{Name: "csv", Type: "string", Description: "CSV file loaded into table before eval", Category: "source"},
		{Name: "options", Type: "map[string]string", Description: "Driver-specific options", Category: "source"},
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "vcol configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("vcol is configured via `vcol.yaml` in your project root. Relative paths resolve against the directory holding the file.")

	fields := getConfigSchema()

	w.Header(2, "Project Settings")
	w.Table([]string{"Field", "Type", "Default", "Description"}, configRows(fields, "project"))

	w.Header(2, "Source")
	w.Paragraph(fmt.Sprintf("The `source` section selects where real fields are read from. Available adapters: %s.", adapterList()))
	w.Table([]string{"Field", "Type", "Default", "Description"}, configRows(fields, "source"))

	w.Header(2, "Environments")
	w.Paragraph("Entries of `environments` override `logic_file` and any `source` field when selected with `--env` or `environment`.")
	w.CodeBlock("yaml", `source:
  type: duckdb
  table: readings

environments:
  prod:
    source:
      type: postgres
      host: db.internal
      password: ${VCOL_DB_PASSWORD}`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}

func configRows(fields []ConfigField, category string) [][]string {
	var rows [][]string
	for _, f := range fields {
		if f.Category != category {
			continue
		}
		defVal := "-"
		if f.Default != "" {
			defVal = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
	}
	return rows
}

func adapterList() string {
	names := adapter.ListAdapters()
	if len(names) == 0 {
		return "none registered"
	}
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += InlineCode(name)
	}
	return out
}
