// Package export writes edge and feature tables as Apache Arrow IPC files,
// the hand-off format for downstream classifiers, and reads edge tables
// back.
package export

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"labelrag/pkg/edges"
	"labelrag/pkg/features"
	"labelrag/pkg/volume"
)

// Column names shared by every exported table.
const (
	ColumnU         = "u"
	ColumnV         = "v"
	ColumnEdgeLabel = "edge_label"
	ColumnOn        = "on"
)

var edgeSchema = arrow.NewSchema([]arrow.Field{
	{Name: ColumnU, Type: arrow.PrimitiveTypes.Uint32},
	{Name: ColumnV, Type: arrow.PrimitiveTypes.Uint32},
	{Name: ColumnEdgeLabel, Type: arrow.PrimitiveTypes.Uint32},
}, nil)

// Options tunes the written files.
type Options struct {
	// Compress enables zstd compression of the record buffers.
	Compress bool
}

func (o Options) ipcOptions(schema *arrow.Schema, pool memory.Allocator) []ipc.Option {
	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(pool)}
	if o.Compress {
		opts = append(opts, ipc.WithZstd())
	}
	return opts
}

// WriteEdgeTable writes table as a single record batch with columns
// u, v and edge_label.
func WriteEdgeTable(path string, table *edges.Table, opts Options) error {
	pool := memory.NewGoAllocator()
	uB := array.NewUint32Builder(pool)
	vB := array.NewUint32Builder(pool)
	lB := array.NewUint32Builder(pool)
	defer func() {
		uB.Release()
		vB.Release()
		lB.Release()
	}()

	for _, row := range table.Rows() {
		uB.Append(row.U)
		vB.Append(row.V)
		lB.Append(row.EdgeLabel)
	}
	cols := []arrow.Array{uB.NewArray(), vB.NewArray(), lB.NewArray()}
	defer releaseAll(cols)

	record := array.NewRecord(edgeSchema, cols, int64(table.Len()))
	defer record.Release()
	return writeRecord(path, record, opts.ipcOptions(edgeSchema, pool))
}

// WriteFeatureTable writes table with columns u, v and one float32 column
// per feature.
func WriteFeatureTable(path string, table *features.Table, opts Options) error {
	pool := memory.NewGoAllocator()
	fields := []arrow.Field{
		{Name: ColumnU, Type: arrow.PrimitiveTypes.Uint32},
		{Name: ColumnV, Type: arrow.PrimitiveTypes.Uint32},
	}
	for _, c := range table.Columns {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Float32})
	}
	schema := arrow.NewSchema(fields, nil)

	uB := array.NewUint32Builder(pool)
	defer uB.Release()
	vB := array.NewUint32Builder(pool)
	defer vB.Release()
	uB.AppendValues(table.U, nil)
	vB.AppendValues(table.V, nil)
	cols := []arrow.Array{uB.NewArray(), vB.NewArray()}

	for _, c := range table.Columns {
		fB := array.NewFloat32Builder(pool)
		fB.AppendValues(c.Values, nil)
		cols = append(cols, fB.NewArray())
		fB.Release()
	}
	defer releaseAll(cols)

	record := array.NewRecord(schema, cols, int64(table.Len()))
	defer record.Release()
	return writeRecord(path, record, opts.ipcOptions(schema, pool))
}

// WriteDecisionTable writes one row per edge of table with columns u, v,
// edge_label and the boolean decision "on".
func WriteDecisionTable(path string, table *edges.Table, decisions []bool, opts Options) error {
	if len(decisions) != table.Len() {
		return fmt.Errorf("%w: %d decisions for %d edges", edges.ErrInvalidShape, len(decisions), table.Len())
	}
	schema := arrow.NewSchema(append(edgeSchema.Fields(),
		arrow.Field{Name: ColumnOn, Type: arrow.FixedWidthTypes.Boolean}), nil)

	pool := memory.NewGoAllocator()
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()
	for _, row := range table.Rows() {
		b.Field(0).(*array.Uint32Builder).Append(row.U)
		b.Field(1).(*array.Uint32Builder).Append(row.V)
		b.Field(2).(*array.Uint32Builder).Append(row.EdgeLabel)
	}
	b.Field(3).(*array.BooleanBuilder).AppendValues(decisions, nil)

	record := b.NewRecord()
	defer record.Release()
	return writeRecord(path, record, opts.ipcOptions(schema, pool))
}

func writeRecord(path string, record arrow.Record, opts []ipc.Option) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, opts...)
	if err != nil {
		return fmt.Errorf("failed to open arrow writer: %w", err)
	}
	if err := w.Write(record); err != nil {
		w.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return f.Close()
}

func releaseAll(cols []arrow.Array) {
	for _, c := range cols {
		c.Release()
	}
}

// ReadEdgeTable reads the (u, v) pairs of an edge, feature or decision
// table file, across all of its record batches, and rebuilds the table
// through edges.UniqueEdgeLabels. Label columns are the uint32 columns
// other than edge_label; columns of other types are ignored. Anything but
// exactly two label columns, or a null in one of them, is
// edges.ErrInvalidShape.
func ReadEdgeTable(path string) (*edges.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read arrow file %s: %w", path, err)
	}
	defer r.Close()

	labelCols, err := labelColumns(r.Schema())
	if err != nil {
		return nil, err
	}

	var flat []volume.Label
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", i, err)
		}
		u := rec.Column(labelCols[0]).(*array.Uint32)
		v := rec.Column(labelCols[1]).(*array.Uint32)
		if u.NullN() > 0 || v.NullN() > 0 {
			return nil, fmt.Errorf("%w: record %d has null labels", edges.ErrInvalidShape, i)
		}
		for j := 0; j < int(rec.NumRows()); j++ {
			flat = append(flat, u.Value(j), v.Value(j))
		}
	}
	ids, err := edges.PairsFromMatrix(flat, len(flat)/len(labelCols), len(labelCols))
	if err != nil {
		return nil, err
	}
	return edges.UniqueEdgeLabels(ids), nil
}

func labelColumns(schema *arrow.Schema) ([]int, error) {
	var cols []int
	for i, f := range schema.Fields() {
		if f.Name == ColumnEdgeLabel || f.Type.ID() != arrow.UINT32 {
			continue
		}
		cols = append(cols, i)
	}
	if len(cols) != 2 {
		return nil, fmt.Errorf("%w: got %d label columns", edges.ErrInvalidShape, len(cols))
	}
	return cols, nil
}
