package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/vcol/pkg/store"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec and column fetching implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// SchemaDialect returns d with its default schema replaced by the
// configured schema, if any.
func (b *BaseSQLAdapter) SchemaDialect(d *Dialect) *Dialect {
	if b.Cfg.Schema == "" {
		return d
	}
	c := *d
	c.DefaultSchema = b.Cfg.Schema
	return &c
}

// ColumnsCommon lists table columns from information_schema.columns with
// dialect-appropriate placeholders.
func (b *BaseSQLAdapter) ColumnsCommon(ctx context.Context, table string, d *Dialect) ([]Column, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := ParseQualifiedName(table, d)

	//nolint:gosec // Placeholders come from Dialect.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return ScanColumns(rows, table)
}

// ScanColumns reads (name, type, position) rows. It is shared by adapters
// that query their own catalog.
func ScanColumns(rows *sql.Rows, table string) ([]Column, error) {
	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// FetchColumnsCommon selects columns from table into a store.Table.
// With no columns it only counts rows, so that constant fields can still
// be broadcast to the right length.
func (b *BaseSQLAdapter) FetchColumnsCommon(ctx context.Context, table string, columns []string, limit int, d *Dialect) (*store.Table, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	from := QualifiedTable(table, d)
	b.logger().Debug("fetching columns", "table", from, "columns", columns, "limit", limit)

	if len(columns) == 0 {
		return b.countRows(ctx, from, limit)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), from) //nolint:gosec // identifiers are quoted
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns from %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	data := make([][]float64, len(columns))
	vals := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range vals {
			f, err := ToFloat(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", columns[i], err)
			}
			data[i] = append(data[i], f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	n := 0
	if len(data) > 0 {
		n = len(data[0])
	}
	t := store.NewTableWithRows(n)
	for i, name := range columns {
		col := data[i]
		if col == nil {
			col = []float64{}
		}
		if err := t.AddColumn(name, col); err != nil {
			return nil, err
		}
	}

	b.logger().Debug("fetched rows", "table", from, "rows", n)
	return t, nil
}

func (b *BaseSQLAdapter) countRows(ctx context.Context, from string, limit int) (*store.Table, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", from) //nolint:gosec // identifiers are quoted
	if err := b.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", from, err)
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return store.NewTableWithRows(n), nil
}

// ToFloat converts a scanned SQL value to float64. NULL and empty strings
// become NaN; booleans become 1 or 0.
func ToFloat(v any) (float64, error) {
	switch v := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	case interface{ Float64() float64 }:
		return v.Float64(), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %q to a number", s)
}
