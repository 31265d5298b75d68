package volume

import "errors"

// Sentinel errors shared by every package that operates on volumes.
var (
	// ErrShapeMismatch indicates two inputs whose shapes must agree do not.
	ErrShapeMismatch = errors.New("volume: shape mismatch")
	// ErrInvalidShape indicates a shape with negative extents, or data whose
	// length disagrees with the product of the shape.
	ErrInvalidShape = errors.New("volume: invalid shape")
	// ErrInvalidAxis indicates an axis outside [-rank, rank).
	ErrInvalidAxis = errors.New("volume: axis out of range")
	// ErrOutOfBounds indicates a range that does not fit inside the volume.
	ErrOutOfBounds = errors.New("volume: range out of bounds")
)
