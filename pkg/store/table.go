package store

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// Table is a columnar store of float64 columns with a common row count.
type Table struct {
	columns []string
	data    map[string][]float64
	rows    int // -1 until the first column is added
}

var _ core.Store = (*Table)(nil)

// NewTable creates an empty table. The row count is fixed by the first
// column added.
func NewTable() *Table {
	return &Table{data: make(map[string][]float64), rows: -1}
}

// NewTableWithRows creates an empty table with a fixed row count, so that
// scalars set before any column is added still broadcast to every row.
func NewTableWithRows(n int) *Table {
	t := NewTable()
	t.rows = n
	return t
}

// TableFrom creates a table from a map of columns, added in sorted order.
func TableFrom(columns map[string][]float64) (*Table, error) {
	t := NewTable()
	for _, name := range sortedKeys(columns) {
		if err := t.AddColumn(name, columns[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn adds or replaces a column. The slice is not copied.
func (t *Table) AddColumn(name string, data []float64) error {
	if t.rows >= 0 && len(data) != t.rows {
		return fmt.Errorf("column %q: %w: table has %d rows, column has %d",
			name, core.ErrLengthMismatch, t.rows, len(data))
	}
	if t.rows < 0 {
		t.rows = len(data)
	}
	if _, ok := t.data[name]; !ok {
		t.columns = append(t.columns, name)
	}
	t.data[name] = data
	return nil
}

// Get implements core.Store.
func (t *Table) Get(name string) (core.Value, error) {
	data, ok := t.data[name]
	if !ok {
		return core.Value{}, &core.FieldNotFoundError{Field: name}
	}
	return core.Column(data), nil
}

// Set implements core.Store. Scalars are broadcast to every row.
func (t *Table) Set(name string, v core.Value) error {
	rows := t.rows
	if rows < 0 {
		rows = v.Len()
	}
	return t.AddColumn(name, v.Broadcast(rows).Floats())
}

// Shape implements core.Store.
func (t *Table) Shape() core.Shape {
	return core.ShapeColumnar
}

// Rows returns the number of rows, or 0 for an empty table.
func (t *Table) Rows() int {
	if t.rows < 0 {
		return 0
	}
	return t.rows
}

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Column returns the data of a column without copying.
func (t *Table) Column(name string) ([]float64, bool) {
	data, ok := t.data[name]
	return data, ok
}

// Row returns row i projected onto names. Missing columns yield an error.
func (t *Table) Row(i int, names []string) ([]float64, error) {
	if i < 0 || i >= t.Rows() {
		return nil, fmt.Errorf("row %d out of range [0, %d)", i, t.Rows())
	}
	out := make([]float64, len(names))
	for j, name := range names {
		data, ok := t.data[name]
		if !ok {
			return nil, &core.FieldNotFoundError{Field: name}
		}
		out[j] = data[i]
	}
	return out, nil
}

// Records splits the table into one Record per row, keeping column order.
func (t *Table) Records() []*Record {
	out := make([]*Record, t.Rows())
	for i := range out {
		r := NewRecord()
		for _, name := range t.columns {
			r.Put(name, t.data[name][i])
		}
		out[i] = r
	}
	return out
}

// TableFromRecords collects the named fields of recs into a table with one
// row per record.
func TableFromRecords(recs []*Record, names []string) (*Table, error) {
	t := NewTableWithRows(len(recs))
	for _, name := range names {
		data := make([]float64, len(recs))
		for i, r := range recs {
			f, ok := r.Float(name)
			if !ok {
				return nil, fmt.Errorf("row %d: %w", i, &core.FieldNotFoundError{Field: name})
			}
			data[i] = f
		}
		if err := t.AddColumn(name, data); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Split partitions the rows into at most n contiguous tables of nearly
// equal size. Partitions share the backing arrays of t; columns set on a
// partition afterwards are its own.
func (t *Table) Split(n int) []*Table {
	rows := t.Rows()
	if n < 1 {
		n = 1
	}
	if n > rows {
		n = rows
	}
	if n <= 1 {
		return []*Table{t}
	}

	parts := make([]*Table, 0, n)
	size, extra := rows/n, rows%n
	lo := 0
	for i := 0; i < n; i++ {
		hi := lo + size
		if i < extra {
			hi++
		}
		part := NewTableWithRows(hi - lo)
		for _, name := range t.columns {
			part.columns = append(part.columns, name)
			part.data[name] = t.data[name][lo:hi:hi]
		}
		parts = append(parts, part)
		lo = hi
	}
	return parts
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
