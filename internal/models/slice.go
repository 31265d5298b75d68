package models

import (
	"image"
)

// Slice represents a single z-slice of a stack with metadata
type Slice struct {
	// Image is the decoded slice image
	Image image.Image

	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice
	Filename string
}

// StackKind names the role a slice stack plays in an analysis
type StackKind string

const (
	LabelStack       StackKind = "labels"
	ValueStack       StackKind = "values"
	GroundtruthStack StackKind = "groundtruth"
)

// StackInfo describes a loaded stack
type StackInfo struct {
	Kind StackKind

	// Dir is the directory the slices were read from
	Dir string

	// Depth, Height, Width are the dimensions of the assembled volume
	Depth, Height, Width int

	// Bytes is the in-memory size of the assembled volume
	Bytes uint64
}
