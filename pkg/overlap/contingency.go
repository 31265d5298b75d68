// Package overlap cross-tabulates two segmentations of the same spatial
// domain and derives a best-overlap remapping from one onto the other.
//
// The contingency table is dense: it takes (maxA+1)×(maxB+1) cells even when
// only a few label pairs actually co-occur. Large, sparsely used label ranges
// therefore cost memory; TableBytes reports the footprint up front.
//
// Counts are held in a gonum *mat.Dense. float64 represents every integer
// count exactly up to 2^53 voxels per cell, which is wider than the 32-bit
// counters this table is usually built with.
package overlap

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"labelrag/pkg/volume"
)

// ErrLabelOutOfRange indicates a label larger than the explicit bound passed
// to Contingency.
var ErrLabelOutOfRange = errors.New("overlap: label exceeds table bound")

// Bounds fixes the largest label of each volume instead of scanning for it.
type Bounds struct {
	MaxA, MaxB volume.Label
}

// ContingencyTable counts co-occurrences: At(i, j) is the number of voxels
// labeled i in volume A and j in volume B.
type ContingencyTable struct {
	counts *mat.Dense
}

// TableBytes returns the memory taken by a table with the given label bounds.
func TableBytes(maxA, maxB volume.Label) uint64 {
	return (uint64(maxA) + 1) * (uint64(maxB) + 1) * 8
}

// Contingency builds the contingency table of a and b in a single pass over
// the voxels. bounds may be nil, in which case the maximum label of each
// volume is used.
//
// Returns volume.ErrShapeMismatch if the shapes differ and ErrLabelOutOfRange
// if a voxel exceeds an explicit bound.
func Contingency(a, b *volume.LabelVolume, bounds *Bounds) (*ContingencyTable, error) {
	if err := volume.CheckSameShape(a.Shape, b.Shape); err != nil {
		return nil, err
	}
	maxA, maxB := a.Max(), b.Max()
	if bounds != nil {
		if maxA > bounds.MaxA {
			return nil, fmt.Errorf("%w: label %d in A, bound %d", ErrLabelOutOfRange, maxA, bounds.MaxA)
		}
		if maxB > bounds.MaxB {
			return nil, fmt.Errorf("%w: label %d in B, bound %d", ErrLabelOutOfRange, maxB, bounds.MaxB)
		}
		maxA, maxB = bounds.MaxA, bounds.MaxB
	}

	counts := mat.NewDense(int(maxA)+1, int(maxB)+1, nil)
	raw := counts.RawMatrix()
	for i, la := range a.Data {
		raw.Data[int(la)*raw.Stride+int(b.Data[i])]++
	}
	return &ContingencyTable{counts: counts}, nil
}

// Dims returns the number of rows (maxA+1) and columns (maxB+1).
func (t *ContingencyTable) Dims() (rows, cols int) {
	return t.counts.Dims()
}

// Bytes returns the memory held by the counts; see TableBytes.
func (t *ContingencyTable) Bytes() uint64 {
	rows, cols := t.Dims()
	return uint64(rows) * uint64(cols) * 8
}

// At returns the count for label i in A and label j in B.
func (t *ContingencyTable) At(i, j int) uint64 {
	return uint64(t.counts.At(i, j))
}

// Row returns the counts of label i in A against every label of B.
// The slice aliases the table and must not be modified.
func (t *ContingencyTable) Row(i int) []float64 {
	return t.counts.RawRowView(i)
}

// Total returns the sum over all cells, which equals the voxel count.
func (t *ContingencyTable) Total() uint64 {
	raw := t.counts.RawMatrix()
	var sum float64
	for i := 0; i < raw.Rows; i++ {
		sum += floats.Sum(raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols])
	}
	return uint64(sum)
}

// Matrix exposes the counts as a read-only gonum matrix.
func (t *ContingencyTable) Matrix() mat.Matrix {
	return t.counts
}
