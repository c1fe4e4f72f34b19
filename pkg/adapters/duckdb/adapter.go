// Package duckdb provides a DuckDB database adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/vcol/pkg/adapter"
	"github.com/leapstack-labs/vcol/pkg/store"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

var dialect = &adapter.Dialect{Name: "duckdb", DefaultSchema: "main"}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" or an empty path for an in-memory database. Options are
// applied as session settings (SET key = 'value').
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applySettings(ctx, cfg.Options); err != nil {
		_ = a.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applySettings(ctx context.Context, settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = '%s'", k, strings.ReplaceAll(settings[k], "'", "''"))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// Columns lists the columns of a table.
func (a *Adapter) Columns(ctx context.Context, table string) ([]adapter.Column, error) {
	return a.ColumnsCommon(ctx, table, a.SchemaDialect(dialect))
}

// FetchColumns reads columns of a table into a store.Table.
func (a *Adapter) FetchColumns(ctx context.Context, table string, columns []string, limit int) (*store.Table, error) {
	return a.FetchColumnsCommon(ctx, table, columns, limit, a.SchemaDialect(dialect))
}

// LoadCSV loads data from a CSV file into a table.
// DuckDB will automatically infer the schema from the CSV file.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		adapter.QualifiedTable(tableName, a.SchemaDialect(dialect)),
		strings.ReplaceAll(absPath, "'", "''"),
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
