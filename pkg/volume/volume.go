// Package volume provides dense n-dimensional arrays stored in row-major
// order, together with the axis-generic slicing helpers used to compare a
// volume against itself shifted by one voxel along an axis.
//
// Volumes are plain values: nothing in this package mutates an input volume,
// and views share the underlying buffer of the volume they were taken from.
package volume

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Number is the set of element types a Volume may hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Label is the element type of label volumes. Label 0 is an ordinary label.
type Label = uint32

// Shape lists the extent of each axis, slowest-varying axis first.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s) }

// Size returns the number of elements described by the shape.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether both shapes have the same rank and extents.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// Strides returns the row-major element strides of the shape.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	step := 1
	for d := len(s) - 1; d >= 0; d-- {
		strides[d] = step
		step *= s[d]
	}
	return strides
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (s Shape) validate() error {
	for i, d := range s {
		if d < 0 {
			return fmt.Errorf("%w: extent %d on axis %d", ErrInvalidShape, d, i)
		}
	}
	return nil
}

// CheckSameShape returns ErrShapeMismatch unless a and b are equal.
func CheckSameShape(a, b Shape) error {
	if !a.Equal(b) {
		return fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, a, b)
	}
	return nil
}

// NormalizeAxis maps a possibly negative axis (counted from the end) onto
// [0, rank).
func NormalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, fmt.Errorf("%w: axis %d for rank %d", ErrInvalidAxis, axis, rank)
	}
	return axis, nil
}

// Volume is a dense n-dimensional array in row-major order.
type Volume[T Number] struct {
	// Data holds Shape.Size() elements, last axis varying fastest.
	Data []T

	// Shape is the extent of every axis.
	Shape Shape

	strides []int
}

// LabelVolume is the volume type for segmentations.
type LabelVolume = Volume[Label]

// New allocates a zero-filled volume of the given shape.
func New[T Number](shape Shape) (*Volume[T], error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	return &Volume[T]{
		Data:    make([]T, shape.Size()),
		Shape:   shape.Clone(),
		strides: shape.Strides(),
	}, nil
}

// FromData wraps data as a volume without copying it.
// Returns ErrInvalidShape if len(data) differs from shape.Size().
func FromData[T Number](data []T, shape Shape) (*Volume[T], error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.Size() {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrInvalidShape, len(data), shape)
	}
	return &Volume[T]{
		Data:    data,
		Shape:   shape.Clone(),
		strides: shape.Strides(),
	}, nil
}

// Rank returns the number of axes.
func (v *Volume[T]) Rank() int { return len(v.Shape) }

// Size returns the number of elements.
func (v *Volume[T]) Size() int { return len(v.Data) }

// Strides returns the row-major strides of the volume. Volumes built as
// struct literals have no cached strides; they are derived from Shape on
// every call and v is never written, so concurrent readers are safe.
func (v *Volume[T]) Strides() []int {
	if len(v.strides) != len(v.Shape) {
		return v.Shape.Strides()
	}
	return v.strides
}

// Validate returns ErrInvalidShape if Shape has a negative extent or Data
// does not hold exactly Shape.Size() elements.
func (v *Volume[T]) Validate() error {
	if err := v.Shape.validate(); err != nil {
		return err
	}
	if len(v.Data) != v.Shape.Size() {
		return fmt.Errorf("%w: %d elements for shape %v", ErrInvalidShape, len(v.Data), v.Shape)
	}
	return nil
}

// Index converts a coordinate into a flat offset into Data.
func (v *Volume[T]) Index(coord ...int) int {
	strides := v.Strides()
	idx := 0
	for d, c := range coord {
		idx += c * strides[d]
	}
	return idx
}

// At returns the element at coord.
func (v *Volume[T]) At(coord ...int) T {
	return v.Data[v.Index(coord...)]
}

// Set stores val at coord.
func (v *Volume[T]) Set(val T, coord ...int) {
	v.Data[v.Index(coord...)] = val
}

// Max returns the largest element, or zero for an empty volume.
func (v *Volume[T]) Max() T {
	var m T
	for i, x := range v.Data {
		if i == 0 || x > m {
			m = x
		}
	}
	return m
}

// Bytes returns the size of the element buffer in bytes.
func (v *Volume[T]) Bytes() uint64 {
	var zero T
	return uint64(len(v.Data)) * uint64(unsafe.Sizeof(zero))
}
