package edges

import (
	"fmt"

	"labelrag/pkg/volume"
)

// EdgeID identifies the boundary between labels U and V. U <= V always holds
// for ids produced by this package.
type EdgeID struct {
	U, V volume.Label
}

// NewEdgeID returns the canonical id of the pair (a, b).
func NewEdgeID(a, b volume.Label) EdgeID {
	if b < a {
		a, b = b, a
	}
	return EdgeID{U: a, V: b}
}

// Canonical returns e with its labels in ascending order.
func (e EdgeID) Canonical() EdgeID { return NewEdgeID(e.U, e.V) }

// Compare orders ids by U, then by V.
func (e EdgeID) Compare(o EdgeID) int {
	switch {
	case e.U < o.U:
		return -1
	case e.U > o.U:
		return 1
	case e.V < o.V:
		return -1
	case e.V > o.V:
		return 1
	}
	return 0
}

func (e EdgeID) String() string { return fmt.Sprintf("(%d, %d)", e.U, e.V) }

// Mask marks label boundaries along one axis.
type Mask struct {
	// Axis is the normalized axis the mask was computed along.
	Axis int

	// Source is the shape of the label volume the mask was computed from.
	Source volume.Shape

	// Shape is Source with Axis one element shorter.
	Shape volume.Shape

	// Bits holds Shape.Size() flags in row-major order.
	Bits []bool
}

// Count returns the number of boundary positions.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// validate checks that the fields of m agree with each other and returns the
// normalized axis. Masks built by hand go through the same checks as those
// from MaskForAxis.
func (m *Mask) validate() (int, error) {
	axis, err := volume.NormalizeAxis(m.Axis, len(m.Source))
	if err != nil {
		return 0, err
	}
	want, err := volume.SlabShape(m.Source, axis)
	if err != nil {
		return 0, err
	}
	if err := volume.CheckSameShape(m.Shape, want); err != nil {
		return 0, err
	}
	if len(m.Bits) != want.Size() {
		return 0, fmt.Errorf("%w: %d mask bits for shape %v", volume.ErrShapeMismatch, len(m.Bits), want)
	}
	return axis, nil
}

// Nonzero returns the flat mask offsets of every boundary position.
func (m *Mask) Nonzero() []int { return volume.Nonzero(m.Bits) }

// Coords returns the coordinates of every boundary position. Each coordinate
// names the voxel on the "left" of the boundary.
func (m *Mask) Coords() (volume.Coords, error) {
	return volume.NonzeroCoords(m.Bits, m.Shape)
}

// slabViews returns the left and right slabs of v along axis.
func slabViews[T volume.Number](v *volume.Volume[T], axis int) (left, right volume.View[T], err error) {
	lr, rr, err := volume.AxisSlabs(v.Shape, axis)
	if err != nil {
		return left, right, err
	}
	if left, err = v.View(lr); err != nil {
		return left, right, err
	}
	right, err = v.View(rr)
	return left, right, err
}

// MaskForAxis compares every voxel of labels with its successor along axis.
// A negative axis counts from the end. If the axis has extent 1 (or 0) the
// mask has no elements and therefore no boundaries.
func MaskForAxis(labels *volume.LabelVolume, axis int) (*Mask, error) {
	axis, err := volume.NormalizeAxis(axis, labels.Rank())
	if err != nil {
		return nil, err
	}
	shape, err := volume.SlabShape(labels.Shape, axis)
	if err != nil {
		return nil, err
	}
	m := &Mask{
		Axis:   axis,
		Source: labels.Shape.Clone(),
		Shape:  shape,
		Bits:   make([]bool, shape.Size()),
	}
	if labels.Shape[axis] <= 1 {
		return m, nil
	}

	left, right, err := slabViews(labels, axis)
	if err != nil {
		return nil, err
	}
	err = volume.Pair(left, right, func(i int, l, r volume.Label) {
		if l != r {
			m.Bits[i] = true
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IDsForAxis reads the label pair straddling every boundary of mask, in the
// order of the mask's set bits, and canonicalizes each pair. A mask whose
// Shape or Bits disagree with its Source is volume.ErrShapeMismatch.
func IDsForAxis(labels *volume.LabelVolume, mask *Mask) ([]EdgeID, error) {
	axis, err := mask.validate()
	if err != nil {
		return nil, err
	}
	if err := volume.CheckSameShape(labels.Shape, mask.Source); err != nil {
		return nil, err
	}
	if err := labels.Validate(); err != nil {
		return nil, err
	}
	n := mask.Count()
	ids := make([]EdgeID, 0, n)
	if n == 0 {
		return ids, nil
	}
	left, right, err := slabViews(labels, axis)
	if err != nil {
		return nil, err
	}
	err = volume.Pair(left, right, func(i int, l, r volume.Label) {
		if mask.Bits[i] {
			ids = append(ids, NewEdgeID(l, r))
		}
	})
	return ids, err
}

// IDMask computes the mask for axis and the edge ids under it.
func IDMask(labels *volume.LabelVolume, axis int) (*Mask, []EdgeID, error) {
	mask, err := MaskForAxis(labels, axis)
	if err != nil {
		return nil, nil, err
	}
	ids, err := IDsForAxis(labels, mask)
	if err != nil {
		return nil, nil, err
	}
	return mask, ids, nil
}
