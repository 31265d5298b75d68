// Package edges finds the boundaries between differently labeled neighbors
// of a label volume, one axis at a time, and gives every adjacent label pair
// a canonical, deduplicated identity.
//
// Typical use:
//
//	mask, ids, err := edges.IDMask(labels, axis) // per axis
//	table := edges.UniqueEdgeLabels(idsZ, idsY, idsX)
//	values, err := edges.ValuesForAxis(axis, mask, intensities)
//
// A Mask is one element narrower than the label volume along its axis: bit p
// is set when the voxel at p and its successor along the axis differ. Edge
// ids, mask coordinates and edge values are all reported in the row-major
// order of the mask's set bits, so they line up one-to-one.
//
// Errors:
//
//   - volume.ErrShapeMismatch: a mask, label volume or value volume disagree.
//   - volume.ErrInvalidAxis: the axis is outside [-rank, rank).
//   - ErrInvalidShape: an edge-pair matrix does not have exactly two columns.
//   - ErrUnknownEdge: an edge id is not present in a Table.
//
// An axis of extent 1 is not an error; it simply has no boundaries.
package edges
