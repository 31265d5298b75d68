package edges

import "errors"

var (
	// ErrInvalidShape indicates an edge-pair matrix without exactly two columns.
	ErrInvalidShape = errors.New("edges: edge pairs must have exactly two columns")
	// ErrUnknownEdge indicates an edge id that a Table does not contain.
	ErrUnknownEdge = errors.New("edges: edge id not in table")
)
