// Package postgres provides a PostgreSQL database adapter.
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/vcol/pkg/adapter"
	"github.com/leapstack-labs/vcol/pkg/store"
)

var dialect = &adapter.Dialect{Name: "postgres", DefaultSchema: "public", Numbered: true}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the PostgreSQL dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// Columns lists the columns of a table.
func (a *Adapter) Columns(ctx context.Context, table string) ([]adapter.Column, error) {
	return a.ColumnsCommon(ctx, table, a.SchemaDialect(dialect))
}

// FetchColumns reads columns of a table into a store.Table.
func (a *Adapter) FetchColumns(ctx context.Context, table string, columns []string, limit int) (*store.Table, error) {
	return a.FetchColumnsCommon(ctx, table, columns, limit, a.SchemaDialect(dialect))
}

// LoadCSV loads data from a CSV file into a table using COPY FROM STDIN.
// All columns are created as TEXT; FetchColumns parses them as numbers.
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

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	target := adapter.QualifiedTable(tableName, a.SchemaDialect(dialect))
	if err := a.createTextTable(ctx, target, headers); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	if err := a.copyFromCSV(ctx, target, file); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	return nil
}

// createTextTable creates or replaces a table with all TEXT columns.
func (a *Adapter) createTextTable(ctx context.Context, target string, columns []string) error {
	if _, err := a.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+target); err != nil {
		return err
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		colDefs[i] = adapter.QuoteIdent(strings.TrimSpace(col)) + " TEXT"
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", target, strings.Join(colDefs, ", "))
	_, err := a.DB.ExecContext(ctx, createSQL)
	return err
}

// copyFromCSV uses PostgreSQL COPY to load CSV data.
func (a *Adapter) copyFromCSV(ctx context.Context, target string, file *os.File) error {
	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()

		copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", target)
		_, err := pgxConn.PgConn().CopyFrom(ctx, file, copySQL)
		return err
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
