// Package adapter provides the database adapter contract used to fetch the
// real fields a computation needs.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with this package from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/vcol/pkg/store"
)

// Config holds connection settings for an adapter.
type Config struct {
	// Type selects the adapter (duckdb, postgres, sqlite).
	Type string

	// Path is the database file for file-based databases (empty for in-memory).
	Path string

	// Network databases
	Database string
	Host     string
	Port     int
	Username string
	Password string

	// Schema is the default schema for unqualified table names.
	Schema string

	// Options holds additional driver-specific settings (e.g. sslmode).
	Options map[string]string
}

// Column describes a table column.
type Column struct {
	Name     string
	Type     string
	Position int
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Columns lists the columns of a table in ordinal order.
	Columns(ctx context.Context, table string) ([]Column, error)

	// FetchColumns reads the named columns of a table into a columnar
	// store. NULL becomes NaN and booleans become 1/0. A limit <= 0 reads
	// every row.
	FetchColumns(ctx context.Context, table string, columns []string, limit int) (*store.Table, error)

	// LoadCSV loads data from a CSV file into a table, replacing it.
	LoadCSV(ctx context.Context, tableName string, filePath string) error

	// Dialect returns the SQL dialect of the database.
	Dialect() *Dialect
}
