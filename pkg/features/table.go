package features

import (
	"fmt"
	"math"

	"labelrag/pkg/edges"
	"labelrag/pkg/volume"
)

// Column is one named feature column.
type Column struct {
	Name   string
	Values []float32
}

// Table holds one row per edge, in edge-label order: the two labels of the
// edge followed by the feature columns.
type Table struct {
	U, V    []uint32
	Columns []Column
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.U) }

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float32, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Build evaluates feats for every edge of ids. edgeGroups is indexed by edge
// label and spGroups by superpixel label; spGroups may be nil when no
// superpixel feature is requested.
//
// A superpixel feature becomes two columns: the sum of the statistic over U
// and V, and the signed difference U - V. For count and sum the difference
// is taken in absolute value, and both columns are reduced by a cube root.
func Build(ids []edges.EdgeID, edgeGroups, spGroups *Groups, feats []Feature) (*Table, error) {
	if HasScope(feats, EdgeScope) && (edgeGroups == nil || edgeGroups.Len() != len(ids)) {
		return nil, fmt.Errorf("%w: edge groups do not match %d edges", volume.ErrShapeMismatch, len(ids))
	}
	if HasScope(feats, SuperpixelScope) && spGroups == nil {
		return nil, fmt.Errorf("features: superpixel features requested without superpixel groups")
	}

	t := &Table{
		U: make([]uint32, len(ids)),
		V: make([]uint32, len(ids)),
	}
	for i, id := range ids {
		t.U[i], t.V[i] = id.U, id.V
	}

	for _, f := range feats {
		switch f.Scope {
		case EdgeScope:
			col := make([]float32, len(ids))
			for i := range ids {
				col[i] = float32(edgeGroups.Statistic(i, f))
			}
			t.Columns = append(t.Columns, Column{Name: f.Name, Values: col})

		case SuperpixelScope:
			sums := make([]float32, len(ids))
			diffs := make([]float32, len(ids))
			for i, id := range ids {
				a := spGroups.Statistic(int(id.U), f)
				b := spGroups.Statistic(int(id.V), f)
				sum, diff := a+b, a-b
				if f.Stat == Count || f.Stat == Sum {
					sum = math.Cbrt(sum)
					diff = math.Cbrt(math.Abs(diff))
				}
				sums[i], diffs[i] = float32(sum), float32(diff)
			}
			cols := f.Columns()
			t.Columns = append(t.Columns,
				Column{Name: cols[0], Values: sums},
				Column{Name: cols[1], Values: diffs})
		}
	}
	return t, nil
}
