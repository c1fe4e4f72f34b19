package store

import (
	"errors"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/vcol/pkg/core"
)

func newBatch(t *testing.T, mem memory.Allocator) arrow.RecordBatch {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "i", Type: arrow.PrimitiveTypes.Int64},
		{Name: "h", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: "j", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "label", Type: arrow.BinaryTypes.String},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{3600, 7200, 0}, nil)
	b.Field(1).(*array.BooleanBuilder).AppendValues([]bool{true, false, false}, []bool{true, true, false})
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{1.5, 0, 2.5}, []bool{true, false, true})
	b.Field(3).(*array.StringBuilder).AppendValues([]string{"a", "b", "c"}, nil)

	return b.NewRecordBatch()
}

func TestArrowTable_Get(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := newBatch(t, mem)
	tbl := NewArrowTable(batch, mem)
	batch.Release()
	defer tbl.Release()

	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, core.ShapeColumnar, tbl.Shape())

	i, err := tbl.Get("i")
	require.NoError(t, err)
	assert.Equal(t, []float64{3600, 7200, 0}, i.Floats())

	h, err := tbl.Get("h")
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.At(0))
	assert.Equal(t, 0.0, h.At(1))
	assert.True(t, math.IsNaN(h.At(2)), "null bool is NaN")

	j, err := tbl.Get("j")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(j.At(1)))

	_, err = tbl.Get("label")
	assert.ErrorContains(t, err, "unsupported arrow type")

	_, err = tbl.Get("nope")
	assert.True(t, errors.Is(err, core.ErrFieldNotFound))
}

func TestArrowTable_SetAndRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := newBatch(t, mem)
	tbl := NewArrowTable(batch, mem)
	batch.Release()
	defer tbl.Release()

	require.NoError(t, tbl.Set("b", core.Column([]float64{1, 2, 0})))
	require.NoError(t, tbl.Set("n", core.Scalar(1)))
	require.NoError(t, tbl.Set("j", core.Column([]float64{math.NaN(), 4, 5})))

	err := tbl.Set("short", core.Column([]float64{1}))
	assert.True(t, errors.Is(err, core.ErrLengthMismatch))

	got, err := tbl.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 0}, got.Floats())

	rec := tbl.Record()
	defer rec.Release()

	require.EqualValues(t, 6, rec.NumCols())
	assert.EqualValues(t, 3, rec.NumRows())

	names := make([]string, rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"i", "h", "j", "label", "b", "n"}, names)

	j := rec.Column(2).(*array.Float64)
	assert.True(t, j.IsNull(0))
	assert.Equal(t, 4.0, j.Value(1))

	n := rec.Column(5).(*array.Float64)
	assert.Equal(t, []float64{1, 1, 1}, n.Float64Values())

	_, ok := rec.Column(3).(*array.String)
	assert.True(t, ok, "untouched columns keep their type")
}
