package store

import (
	"github.com/leapstack-labs/vcol/pkg/core"
)

// Record is a single-record store holding one scalar per field.
type Record struct {
	fields []string
	values map[string]float64
}

var _ core.Store = (*Record)(nil)

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]float64)}
}

// RecordFrom creates a record from a map, adding fields in sorted order.
func RecordFrom(values map[string]float64) *Record {
	r := NewRecord()
	for _, name := range sortedKeys(values) {
		r.Put(name, values[name])
	}
	return r
}

// Put stores f under name.
func (r *Record) Put(name string, f float64) {
	if _, ok := r.values[name]; !ok {
		r.fields = append(r.fields, name)
	}
	r.values[name] = f
}

// Get implements core.Store.
func (r *Record) Get(name string) (core.Value, error) {
	f, ok := r.values[name]
	if !ok {
		return core.Value{}, &core.FieldNotFoundError{Field: name}
	}
	return core.Scalar(f), nil
}

// Set implements core.Store. Column values are reduced to their first row.
func (r *Record) Set(name string, v core.Value) error {
	r.Put(name, v.Float())
	return nil
}

// Shape implements core.Store.
func (r *Record) Shape() core.Shape {
	return core.ShapeRecord
}

// Float returns the value of name.
func (r *Record) Float(name string) (float64, bool) {
	f, ok := r.values[name]
	return f, ok
}

// Fields returns field names in insertion order.
func (r *Record) Fields() []string {
	return append([]string(nil), r.fields...)
}
