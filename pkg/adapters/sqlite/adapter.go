// Package sqlite provides a SQLite database adapter backed by the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/vcol/pkg/adapter"
	"github.com/leapstack-labs/vcol/pkg/store"

	_ "modernc.org/sqlite" // sqlite driver
)

var dialect = &adapter.Dialect{Name: "sqlite", DefaultSchema: "main"}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// Connect opens the database file at cfg.Path, or a private in-memory
// database when the path is empty.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Columns lists the columns of a table using pragma_table_info.
func (a *Adapter) Columns(ctx context.Context, table string) ([]adapter.Column, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, name := adapter.ParseQualifiedName(table, a.SchemaDialect(dialect))
	rows, err := a.DB.QueryContext(ctx,
		"SELECT name, type, cid + 1 FROM pragma_table_info(?, ?) ORDER BY cid", name, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return adapter.ScanColumns(rows, table)
}

// FetchColumns reads columns of a table into a store.Table.
func (a *Adapter) FetchColumns(ctx context.Context, table string, columns []string, limit int) (*store.Table, error) {
	return a.FetchColumnsCommon(ctx, table, columns, limit, a.SchemaDialect(dialect))
}

// LoadCSV replaces tableName with the contents of a CSV file. Columns are
// created with NUMERIC affinity and empty cells are stored as NULL.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(absPath) //nolint:gosec // absPath is derived from user-provided filePath, which is expected
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	headers, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	target := adapter.QualifiedTable(tableName, a.SchemaDialect(dialect))

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := createNumericTable(ctx, tx, target, headers); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(headers)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", target, placeholders)) //nolint:gosec // identifiers are quoted
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	n := 0
	args := make([]any, len(headers))
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV row %d: %w", n+1, err)
		}
		for i, cell := range record {
			if strings.TrimSpace(cell) == "" {
				args[i] = nil
			} else {
				args[i] = cell
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert CSV row %d: %w", n+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	a.Logger.Debug("loaded csv", slog.String("table", target), slog.Int("rows", n))
	return nil
}

func createNumericTable(ctx context.Context, tx *sql.Tx, target string, columns []string) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+target); err != nil {
		return err
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		colDefs[i] = adapter.QuoteIdent(strings.TrimSpace(col)) + " NUMERIC"
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", target, strings.Join(colDefs, ", ")))
	return err
}

var _ adapter.Adapter = (*Adapter)(nil)
