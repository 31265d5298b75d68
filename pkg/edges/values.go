package edges

import (
	"fmt"

	"labelrag/pkg/volume"
)

// ValuesForAxis returns one value per boundary position of mask: the mean of
// the two voxels of values straddling the boundary. Both voxels are converted
// to float32 before averaging, whatever the element type of values.
//
// Only the average is kept, not the two raw values, which halves the memory
// of the result at the price of left/right asymmetric statistics.
//
// values must have the shape of the label volume the mask was built from, and
// axis must name the mask's axis; otherwise volume.ErrShapeMismatch is
// returned. The same error covers a mask whose Shape or Bits disagree with
// its Source.
func ValuesForAxis[T volume.Number](axis int, mask *Mask, values *volume.Volume[T]) ([]float32, error) {
	maskAxis, err := mask.validate()
	if err != nil {
		return nil, err
	}
	axis, err = volume.NormalizeAxis(axis, len(mask.Source))
	if err != nil {
		return nil, err
	}
	if axis != maskAxis {
		return nil, fmt.Errorf("%w: axis %d for a mask along axis %d", volume.ErrShapeMismatch, axis, maskAxis)
	}
	if err := volume.CheckSameShape(values.Shape, mask.Source); err != nil {
		return nil, err
	}
	if err := values.Validate(); err != nil {
		return nil, err
	}
	n := mask.Count()
	out := make([]float32, 0, n)
	if n == 0 {
		return out, nil
	}
	left, right, err := slabViews(values, axis)
	if err != nil {
		return nil, err
	}
	err = volume.Pair(left, right, func(i int, l, r T) {
		if mask.Bits[i] {
			out = append(out, (float32(l)+float32(r))/2)
		}
	})
	return out, err
}
