// Package visualization renders label volumes as 16-bit grey slice images,
// so that segmentations can be inspected or fed back into the analysis as a
// stack.
package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"labelrag/pkg/volume"
)

// ErrLabelTooLarge is returned when a label does not fit a 16-bit pixel.
var ErrLabelTooLarge = errors.New("visualization: label exceeds 16 bits")

// Viewer extracts slices from a (z, y, x) label volume
type Viewer struct {
	// labels holds the volume being viewed
	labels *volume.LabelVolume
}

// NewViewer creates a viewer for a rank-3 label volume
func NewViewer(labels *volume.LabelVolume) (*Viewer, error) {
	if labels.Rank() != 3 {
		return nil, fmt.Errorf("%w: viewer needs a (z, y, x) volume, got %v", volume.ErrInvalidShape, labels.Shape)
	}
	if labels.Max() > 0xffff {
		return nil, fmt.Errorf("%w: max label %d", ErrLabelTooLarge, labels.Max())
	}
	return &Viewer{labels: labels}, nil
}

func axisIndex(axis string) (int, error) {
	switch axis {
	case "z", "Z":
		return 0, nil
	case "y", "Y":
		return 1, nil
	case "x", "X":
		return 2, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice extracts the plane at position along axis. A z slice is laid
// out (x, y), a y slice (x, z) and an x slice (z, y).
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	a, err := axisIndex(axis)
	if err != nil {
		return nil, err
	}
	shape := v.labels.Shape
	if position < 0 || position >= shape[a] {
		return nil, fmt.Errorf("%w: position %d outside [0, %d) along %s",
			volume.ErrOutOfBounds, position, shape[a], axis)
	}

	ranges := volume.Full(shape)
	ranges[a] = volume.Range{Start: position, Stop: position + 1}
	view, err := v.labels.View(ranges)
	if err != nil {
		return nil, err
	}

	// rows and cols are the two remaining axes in order.
	var rest []int
	for d := range shape {
		if d != a {
			rest = append(rest, shape[d])
		}
	}
	rows, cols := rest[0], rest[1]

	var img *image.Gray16
	if a == 2 {
		img = image.NewGray16(image.Rect(0, 0, rows, cols))
	} else {
		img = image.NewGray16(image.Rect(0, 0, cols, rows))
	}
	view.Walk(func(i, flat int) {
		r, c := i/cols, i%cols
		px := color.Gray16{Y: uint16(v.labels.Data[flat])}
		if a == 2 {
			img.SetGray16(r, c, px)
		} else {
			img.SetGray16(c, r, px)
		}
	})
	return img, nil
}

// SaveSlice saves an extracted slice; the format follows the file extension
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

// SaveSliceSequence extracts and saves every slice along axis as
// slice_<axis>_<n>.png, which loads back as a label stack
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) ([]string, error) {
	a, err := axisIndex(axis)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for pos := 0; pos < v.labels.Shape[a]; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return nil, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return nil, err
		}
		files = append(files, filename)
	}
	return files, nil
}
