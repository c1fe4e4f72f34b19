package commands

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/leapstack-labs/vcol/pkg/store"
)

// writeArrow writes columns of every partition to path as an Arrow IPC
// stream, one record batch per partition. NaN values are written as nulls.
func writeArrow(path string, columns []string, parts []*store.Table) error {
	f, err := os.Create(path) //nolint:gosec // user-supplied output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	mem := memory.NewGoAllocator()
	var writer *ipc.Writer
	for _, p := range parts {
		rec, err := partitionRecord(p, columns, mem)
		if err != nil {
			return err
		}
		if writer == nil {
			writer = ipc.NewWriter(f, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
		}
		err = writer.Write(rec)
		rec.Release()
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if writer == nil {
		return nil
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return f.Close()
}

// partitionRecord converts one partition into a record batch of Float64
// columns. The caller must release the returned batch.
func partitionRecord(p *store.Table, columns []string, mem memory.Allocator) (arrow.RecordBatch, error) {
	empty := array.NewRecordBatch(arrow.NewSchema(nil, nil), nil, int64(p.Rows()))
	defer empty.Release()

	at := store.NewArrowTable(empty, mem)
	defer at.Release()

	for _, name := range columns {
		v, err := p.Get(name)
		if err != nil {
			return nil, err
		}
		if err := at.Set(name, v); err != nil {
			return nil, err
		}
	}
	return at.Record(), nil
}
