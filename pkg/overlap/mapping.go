package overlap

import (
	"gonum.org/v1/gonum/floats"

	"labelrag/pkg/volume"
)

// Mapping sends every label i of the "from" volume to the label of the "to"
// volume it overlaps most. Its length is maxFrom+1; indices for labels that
// never occur map to 0.
type Mapping []volume.Label

// Map returns the target label for l, or l itself when l is beyond the
// mapping.
func (m Mapping) Map(l volume.Label) volume.Label {
	if int(l) >= len(m) {
		return l
	}
	return m[l]
}

// Mapping returns the row-wise arg-max of the table. When several columns
// share the maximum count the lowest column index wins.
func (t *ContingencyTable) Mapping() Mapping {
	rows, _ := t.Dims()
	m := make(Mapping, rows)
	for i := 0; i < rows; i++ {
		// floats.MaxIdx returns the first index of the maximum.
		m[i] = volume.Label(floats.MaxIdx(t.Row(i)))
	}
	return m
}

// LabelMapping determines how to remap labels of from onto labels of to by
// maximal overlap. The result is not symmetric: LabelMapping(a, b) and
// LabelMapping(b, a) generally differ and neither inverts the other.
//
// Both volumes must already be aligned to the same shape; otherwise
// volume.ErrShapeMismatch is returned.
func LabelMapping(from, to *volume.LabelVolume) (Mapping, error) {
	table, err := Contingency(from, to, nil)
	if err != nil {
		return nil, err
	}
	return table.Mapping(), nil
}
