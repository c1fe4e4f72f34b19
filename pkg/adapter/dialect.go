package adapter

import (
	"fmt"
	"strings"
)

// Dialect holds the SQL differences between supported databases.
type Dialect struct {
	Name          string
	DefaultSchema string
	// Numbered selects $1-style placeholders instead of ?.
	Numbered bool
}

// FormatPlaceholder returns the n-th (1-based) bind placeholder.
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.Numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *Dialect) (schema, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// QualifiedTable returns the quoted schema.table reference for table.
func QualifiedTable(table string, d *Dialect) string {
	schema, name := ParseQualifiedName(table, d)
	return QuoteIdent(schema) + "." + QuoteIdent(name)
}
