package visualization

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelrag/pkg/volume"
)

// testVolume returns a (2, 3, 4) volume whose label encodes its coordinate
// as 100*z + 10*y + x + 1.
func testVolume(t *testing.T) *volume.LabelVolume {
	vol, err := volume.New[volume.Label](volume.Shape{2, 3, 4})
	require.NoError(t, err)
	for z := 0; z < 2; z++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				vol.Set(volume.Label(100*z+10*y+x+1), z, y, x)
			}
		}
	}
	return vol
}

func TestNewViewer(t *testing.T) {
	flat, err := volume.New[volume.Label](volume.Shape{4, 4})
	require.NoError(t, err)
	_, err = NewViewer(flat)
	assert.ErrorIs(t, err, volume.ErrInvalidShape)

	big := testVolume(t)
	big.Data[0] = 70000
	_, err = NewViewer(big)
	assert.ErrorIs(t, err, ErrLabelTooLarge)
}

func TestExtractSlice(t *testing.T) {
	viewer, err := NewViewer(testVolume(t))
	require.NoError(t, err)

	tests := []struct {
		axis     string
		position int
		bounds   image.Rectangle
		px, py   int
		want     uint16
	}{
		{"z", 1, image.Rect(0, 0, 4, 3), 3, 2, 124},
		{"Y", 2, image.Rect(0, 0, 4, 2), 1, 1, 122},
		{"x", 3, image.Rect(0, 0, 2, 3), 1, 2, 124},
		{"x", 0, image.Rect(0, 0, 2, 3), 0, 1, 11},
	}
	for _, tt := range tests {
		img, err := viewer.ExtractSlice(tt.axis, tt.position)
		require.NoError(t, err)
		assert.Equal(t, tt.bounds, img.Bounds(), "%s=%d", tt.axis, tt.position)
		assert.Equal(t, tt.want, img.Gray16At(tt.px, tt.py).Y, "%s=%d", tt.axis, tt.position)
	}

	_, err = viewer.ExtractSlice("w", 0)
	assert.Error(t, err)
	_, err = viewer.ExtractSlice("z", 2)
	assert.ErrorIs(t, err, volume.ErrOutOfBounds)
	_, err = viewer.ExtractSlice("z", -1)
	assert.ErrorIs(t, err, volume.ErrOutOfBounds)
}

func TestSaveSliceSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slices")
	viewer, err := NewViewer(testVolume(t))
	require.NoError(t, err)

	files, err := viewer.SaveSliceSequence("z", dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	img, err := imaging.Open(files[1])
	require.NoError(t, err)
	g16, ok := img.(*image.Gray16)
	require.True(t, ok, "got %T", img)
	assert.Equal(t, uint16(101), g16.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(124), g16.Gray16At(3, 2).Y)

	_, err = viewer.SaveSliceSequence("q", dir)
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
