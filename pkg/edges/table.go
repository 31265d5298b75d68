package edges

import (
	"fmt"
	"sort"

	"golang.org/x/exp/slices"

	"labelrag/pkg/volume"
)

// Row is one entry of a Table.
type Row struct {
	U, V      volume.Label
	EdgeLabel uint32
}

// Table is a duplicate-free list of edge ids sorted by (U, V). The edge label
// of an id is its position in that order, so labels are dense in [0, Len()).
type Table struct {
	ids []EdgeID
}

func compareIDs(a, b EdgeID) int { return a.Compare(b) }

// dedupe canonicalizes, sorts and compacts ids in place.
func dedupe(ids []EdgeID) []EdgeID {
	for i := range ids {
		ids[i] = ids[i].Canonical()
	}
	slices.SortFunc(ids, compareIDs)
	return slices.Compact(ids)
}

// UniqueEdgeLabels merges any number of edge-id lists (one per axis, or one
// per accumulation pass) into a single Table. Each source is deduplicated on
// its own, the survivors are concatenated and deduplicated again, and the
// result is sorted before labels are assigned, so the order of sources and of
// ids within them does not affect the outcome. Sources are not modified.
func UniqueEdgeLabels(sources ...[]EdgeID) *Table {
	var merged []EdgeID
	for _, src := range sources {
		merged = append(merged, dedupe(slices.Clone(src))...)
	}
	return &Table{ids: dedupe(merged)}
}

// PairsFromMatrix interprets a row-major (rows, cols) label matrix as edge
// ids. Returns ErrInvalidShape unless cols is 2 and data holds rows*cols
// values.
func PairsFromMatrix(data []volume.Label, rows, cols int) ([]EdgeID, error) {
	if cols != 2 {
		return nil, fmt.Errorf("%w: got %d columns", ErrInvalidShape, cols)
	}
	if rows < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %d rows", ErrInvalidShape, len(data), rows)
	}
	ids := make([]EdgeID, rows)
	for i := range ids {
		ids[i] = EdgeID{U: data[2*i], V: data[2*i+1]}
	}
	return ids, nil
}

// Len returns the number of distinct edges.
func (t *Table) Len() int { return len(t.ids) }

// IDs returns the edge ids in label order. The slice is shared with the
// table and must not be modified.
func (t *Table) IDs() []EdgeID { return t.ids }

// ID returns the id carrying edge label l.
func (t *Table) ID(l uint32) EdgeID { return t.ids[l] }

// Label returns the edge label of id, or false when id is not in the table.
func (t *Table) Label(id EdgeID) (uint32, bool) {
	id = id.Canonical()
	i := sort.Search(len(t.ids), func(i int) bool { return t.ids[i].Compare(id) >= 0 })
	if i < len(t.ids) && t.ids[i] == id {
		return uint32(i), true
	}
	return 0, false
}

// Labels looks up the edge label of every id. Returns ErrUnknownEdge if any
// id is missing.
func (t *Table) Labels(ids []EdgeID) ([]uint32, error) {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		l, ok := t.Label(id)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownEdge, id)
		}
		out[i] = l
	}
	return out, nil
}

// Rows returns the table as (u, v, edge label) rows.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.ids))
	for i, id := range t.ids {
		rows[i] = Row{U: id.U, V: id.V, EdgeLabel: uint32(i)}
	}
	return rows
}

// Equal reports whether both tables hold the same ids, and hence the same
// labels.
func (t *Table) Equal(o *Table) bool {
	return slices.Equal(t.ids, o.ids)
}
