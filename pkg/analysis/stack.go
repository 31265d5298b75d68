package analysis

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"labelrag/internal/models"
	"labelrag/pkg/volume"
)

// ErrUnsupportedImage is returned for label slices that are not 8-bit grey,
// 16-bit grey or paletted.
var ErrUnsupportedImage = errors.New("analysis: unsupported label image format")

var sliceExtensions = map[string]bool{
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// loadSlices reads every image of dir, ordered by the number embedded in the
// file name.
func loadSlices(dir string) ([]models.Slice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && sliceExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no PNG, TIFF or BMP images found in %s", dir)
	}

	sort.SliceStable(names, func(i, j int) bool {
		return extractNumber(names[i]) < extractNumber(names[j])
	})

	slices := make([]models.Slice, 0, len(names))
	for i, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: name})
	}
	return slices, nil
}

// extractNumber extracts the digits of a file name as one number, 0 if
// there are none.
func extractNumber(filename string) int {
	var digits strings.Builder
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	num, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return num
}

// stackToVolume assembles equally sized slices into a (z, y, x) volume,
// converting each pixel with px.
func stackToVolume[T volume.Number](slices []models.Slice, px func(img image.Image, x, y int) (T, error)) (*volume.Volume[T], error) {
	b := slices[0].Image.Bounds()
	vol, err := volume.New[T](volume.Shape{len(slices), b.Dy(), b.Dx()})
	if err != nil {
		return nil, err
	}

	i := 0
	for _, s := range slices {
		sb := s.Image.Bounds()
		if sb.Dx() != b.Dx() || sb.Dy() != b.Dy() {
			return nil, fmt.Errorf("%w: slice %d (%s) is %dx%d, expected %dx%d",
				volume.ErrShapeMismatch, s.Index, s.Filename, sb.Dx(), sb.Dy(), b.Dx(), b.Dy())
		}
		for y := sb.Min.Y; y < sb.Max.Y; y++ {
			for x := sb.Min.X; x < sb.Max.X; x++ {
				v, err := px(s.Image, x, y)
				if err != nil {
					return nil, fmt.Errorf("slice %d (%s): %w", s.Index, s.Filename, err)
				}
				vol.Data[i] = v
				i++
			}
		}
	}
	return vol, nil
}

// labelPixel reads a label without any color conversion.
func labelPixel(img image.Image, x, y int) (volume.Label, error) {
	switch m := img.(type) {
	case *image.Gray:
		return volume.Label(m.GrayAt(x, y).Y), nil
	case *image.Gray16:
		return volume.Label(m.Gray16At(x, y).Y), nil
	case *image.Paletted:
		return volume.Label(m.ColorIndexAt(x, y)), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedImage, img)
	}
}

// valuePixel reads an intensity; color images are reduced to 8-bit
// luminance.
func valuePixel(img image.Image, x, y int) (float32, error) {
	switch m := img.(type) {
	case *image.Gray:
		return float32(m.GrayAt(x, y).Y), nil
	case *image.Gray16:
		return float32(m.Gray16At(x, y).Y), nil
	default:
		return float32(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y), nil
	}
}

func loadLabelStack(dir string, kind models.StackKind) (*volume.LabelVolume, models.StackInfo, error) {
	slices, err := loadSlices(dir)
	if err != nil {
		return nil, models.StackInfo{}, err
	}
	vol, err := stackToVolume(slices, labelPixel)
	if err != nil {
		return nil, models.StackInfo{}, err
	}
	return vol, stackInfo(kind, dir, vol.Shape, vol.Bytes()), nil
}

func loadValueStack(dir string) (*volume.Volume[float32], models.StackInfo, error) {
	slices, err := loadSlices(dir)
	if err != nil {
		return nil, models.StackInfo{}, err
	}
	vol, err := stackToVolume(slices, valuePixel)
	if err != nil {
		return nil, models.StackInfo{}, err
	}
	return vol, stackInfo(models.ValueStack, dir, vol.Shape, vol.Bytes()), nil
}

func stackInfo(kind models.StackKind, dir string, shape volume.Shape, bytes uint64) models.StackInfo {
	return models.StackInfo{
		Kind:   kind,
		Dir:    dir,
		Depth:  shape[0],
		Height: shape[1],
		Width:  shape[2],
		Bytes:  bytes,
	}
}
