package store

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// ArrowTable is a columnar store backed by an Arrow record batch.
//
// Numeric and boolean columns of the batch are read as float64 columns,
// with nulls mapped to NaN. Fields written with Set are kept alongside the
// batch and materialized by Record. The batch itself is never modified.
type ArrowTable struct {
	batch arrow.RecordBatch
	mem   memory.Allocator

	decoded map[string][]float64 // batch columns read so far
	derived map[string][]float64 // columns written with Set
	added   []string             // derived names not present in the batch
}

var _ core.Store = (*ArrowTable)(nil)

// NewArrowTable wraps batch. The table retains the batch; call Release when
// done. A nil allocator selects memory.DefaultAllocator.
func NewArrowTable(batch arrow.RecordBatch, mem memory.Allocator) *ArrowTable {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	batch.Retain()
	return &ArrowTable{
		batch:   batch,
		mem:     mem,
		decoded: make(map[string][]float64),
		derived: make(map[string][]float64),
	}
}

// Release releases the wrapped batch.
func (t *ArrowTable) Release() {
	t.batch.Release()
}

// Rows returns the number of rows in the batch.
func (t *ArrowTable) Rows() int {
	return int(t.batch.NumRows())
}

// Get implements core.Store.
func (t *ArrowTable) Get(name string) (core.Value, error) {
	if data, ok := t.derived[name]; ok {
		return core.Column(data), nil
	}
	if data, ok := t.decoded[name]; ok {
		return core.Column(data), nil
	}

	idx := t.batch.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return core.Value{}, &core.FieldNotFoundError{Field: name}
	}
	data, err := toFloats(t.batch.Column(idx[0]))
	if err != nil {
		return core.Value{}, fmt.Errorf("column %q: %w", name, err)
	}
	t.decoded[name] = data
	return core.Column(data), nil
}

// Set implements core.Store. Scalars are broadcast to every row; a column
// must match the batch row count.
func (t *ArrowTable) Set(name string, v core.Value) error {
	if v.IsColumn() && v.Len() != t.Rows() {
		return fmt.Errorf("column %q: %w: table has %d rows, column has %d",
			name, core.ErrLengthMismatch, t.Rows(), v.Len())
	}
	if _, ok := t.derived[name]; !ok && len(t.batch.Schema().FieldIndices(name)) == 0 {
		t.added = append(t.added, name)
	}
	t.derived[name] = v.Broadcast(t.Rows()).Floats()
	return nil
}

// Shape implements core.Store.
func (t *ArrowTable) Shape() core.Shape {
	return core.ShapeColumnar
}

// Record materializes a new record batch holding the original columns
// followed by every added field as a Float64 column. Batch columns that
// were overwritten with Set are replaced in place. The caller must release
// the returned batch.
func (t *ArrowTable) Record() arrow.RecordBatch {
	schema := t.batch.Schema()
	fields := make([]arrow.Field, 0, len(schema.Fields())+len(t.added))
	cols := make([]arrow.Array, 0, cap(fields))

	for i, f := range schema.Fields() {
		if data, ok := t.derived[f.Name]; ok {
			fields = append(fields, arrow.Field{Name: f.Name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
			cols = append(cols, t.float64Array(data))
			continue
		}
		col := t.batch.Column(i)
		col.Retain()
		fields = append(fields, f)
		cols = append(cols, col)
	}
	for _, name := range t.added {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
		cols = append(cols, t.float64Array(t.derived[name]))
	}

	md := schema.Metadata()
	out := array.NewRecordBatch(arrow.NewSchema(fields, &md), cols, t.batch.NumRows())
	for _, c := range cols {
		c.Release()
	}
	return out
}

// float64Array builds an Arrow array from data; NaN becomes null.
func (t *ArrowTable) float64Array(data []float64) arrow.Array {
	b := array.NewFloat64Builder(t.mem)
	defer b.Release()
	b.Reserve(len(data))
	for _, f := range data {
		if math.IsNaN(f) {
			b.AppendNull()
			continue
		}
		b.Append(f)
	}
	return b.NewArray()
}

type numericArray[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64] interface {
	Len() int
	IsNull(i int) bool
	Value(i int) T
}

func numeric[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64](arr numericArray[T]) []float64 {
	out := make([]float64, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(arr.Value(i))
	}
	return out
}

// toFloats decodes a numeric or boolean Arrow array.
func toFloats(arr arrow.Array) ([]float64, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return numeric[float64](a), nil
	case *array.Float32:
		return numeric[float32](a), nil
	case *array.Int64:
		return numeric[int64](a), nil
	case *array.Int32:
		return numeric[int32](a), nil
	case *array.Int16:
		return numeric[int16](a), nil
	case *array.Int8:
		return numeric[int8](a), nil
	case *array.Uint64:
		return numeric[uint64](a), nil
	case *array.Uint32:
		return numeric[uint32](a), nil
	case *array.Uint16:
		return numeric[uint16](a), nil
	case *array.Uint8:
		return numeric[uint8](a), nil
	case *array.Boolean:
		out := make([]float64, a.Len())
		for i := range out {
			switch {
			case a.IsNull(i):
				out[i] = math.NaN()
			case a.Value(i):
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported arrow type %s", arr.DataType())
	}
}
