package volume

import "fmt"

// Range is a half-open index interval [Start, Stop) along one axis.
type Range struct {
	Start, Stop int
}

// Len returns the number of indices covered by r.
func (r Range) Len() int {
	if r.Stop < r.Start {
		return 0
	}
	return r.Stop - r.Start
}

// Full returns one full-extent range per axis of shape.
func Full(shape Shape) []Range {
	ranges := make([]Range, len(shape))
	for d, n := range shape {
		ranges[d] = Range{0, n}
	}
	return ranges
}

// AxisSlabs returns the range descriptors of the "left" and "right" slabs
// of a volume along axis: left drops the last index along axis, right drops
// the first, and every other axis keeps its full range. Both slabs have the
// same shape, which is one element narrower than shape along axis (clamped
// at zero).
func AxisSlabs(shape Shape, axis int) (left, right []Range, err error) {
	axis, err = NormalizeAxis(axis, len(shape))
	if err != nil {
		return nil, nil, err
	}
	left = Full(shape)
	right = Full(shape)
	n := shape[axis]
	if n == 0 {
		return left, right, nil
	}
	left[axis] = Range{0, n - 1}
	right[axis] = Range{1, n}
	return left, right, nil
}

// SlabShape returns the shape shared by both slabs of AxisSlabs.
func SlabShape(shape Shape, axis int) (Shape, error) {
	axis, err := NormalizeAxis(axis, len(shape))
	if err != nil {
		return nil, err
	}
	s := shape.Clone()
	if s[axis] > 0 {
		s[axis]--
	}
	return s, nil
}

// View is a rectangular window onto a volume's buffer. It never copies.
type View[T Number] struct {
	data    []T
	offset  int
	shape   Shape
	strides []int
}

// View returns the window of v described by one range per axis.
func (v *Volume[T]) View(ranges []Range) (View[T], error) {
	if len(ranges) != v.Rank() {
		return View[T]{}, fmt.Errorf("%w: %d ranges for rank %d", ErrShapeMismatch, len(ranges), v.Rank())
	}
	strides := v.Strides()
	shape := make(Shape, len(ranges))
	offset := 0
	for d, r := range ranges {
		if r.Start < 0 || r.Stop > v.Shape[d] || r.Start > r.Stop {
			return View[T]{}, fmt.Errorf("%w: [%d, %d) on axis %d of extent %d",
				ErrOutOfBounds, r.Start, r.Stop, d, v.Shape[d])
		}
		shape[d] = r.Len()
		offset += r.Start * strides[d]
	}
	return View[T]{data: v.Data, offset: offset, shape: shape, strides: strides}, nil
}

// Shape returns the extent of the view along each axis.
func (w View[T]) Shape() Shape { return w.shape }

// Size returns the number of elements in the view.
func (w View[T]) Size() int { return w.shape.Size() }

// Walk calls fn for every element of the view in row-major order with the
// element's ordinal i within the view and its flat offset into the buffer.
func (w View[T]) Walk(fn func(i, flat int)) {
	n := w.shape.Size()
	if n == 0 {
		return
	}
	rank := len(w.shape)
	idx := make([]int, rank)
	flat := w.offset
	for i := 0; i < n; i++ {
		fn(i, flat)
		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			flat += w.strides[d]
			if idx[d] < w.shape[d] {
				break
			}
			flat -= idx[d] * w.strides[d]
			idx[d] = 0
		}
	}
}

// Copy materializes the view as a new volume.
func (w View[T]) Copy() *Volume[T] {
	out := &Volume[T]{
		Data:    make([]T, w.shape.Size()),
		Shape:   w.shape.Clone(),
		strides: w.shape.Strides(),
	}
	w.Walk(func(i, flat int) {
		out.Data[i] = w.data[flat]
	})
	return out
}

// Pair walks two views in lockstep, calling fn with the ordinal within the
// view and the two elements. Both views must share strides, as views of one
// volume do. Returns ErrShapeMismatch if the views differ in shape.
func Pair[T Number](left, right View[T], fn func(i int, l, r T)) error {
	if err := CheckSameShape(left.shape, right.shape); err != nil {
		return err
	}
	shift := right.offset - left.offset
	left.Walk(func(i, flat int) {
		fn(i, left.data[flat], right.data[flat+shift])
	})
	return nil
}

// Crop copies the sub-volume described by ranges into a new volume.
func (v *Volume[T]) Crop(ranges []Range) (*Volume[T], error) {
	w, err := v.View(ranges)
	if err != nil {
		return nil, err
	}
	return w.Copy(), nil
}
