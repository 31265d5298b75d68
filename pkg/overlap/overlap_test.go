package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelrag/pkg/volume"
)

// quadrants returns a 20x20 volume whose quadrants are labeled 1, 2, 3, 4 in
// row-major order.
func quadrants(t *testing.T) *volume.LabelVolume {
	t.Helper()
	v, err := volume.New[volume.Label](volume.Shape{20, 20})
	require.NoError(t, err)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			l := volume.Label(1)
			if x >= 10 {
				l++
			}
			if y >= 10 {
				l += 2
			}
			v.Set(l, y, x)
		}
	}
	return v
}

func plusOne(t *testing.T, v *volume.LabelVolume) *volume.LabelVolume {
	t.Helper()
	out, err := volume.New[volume.Label](v.Shape)
	require.NoError(t, err)
	for i, l := range v.Data {
		out.Data[i] = l + 1
	}
	return out
}

func TestContingencyMassConservation(t *testing.T) {
	a := quadrants(t)
	b := plusOne(t, a)

	table, err := Contingency(a, b, nil)
	require.NoError(t, err)
	rows, cols := table.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 6, cols)
	assert.Equal(t, uint64(a.Size()), table.Total())
	assert.Equal(t, uint64(100), table.At(1, 2))
	assert.Equal(t, uint64(0), table.At(1, 1))
}

func TestContingencyExplicitBounds(t *testing.T) {
	a := quadrants(t)

	table, err := Contingency(a, a, &Bounds{MaxA: 9, MaxB: 4})
	require.NoError(t, err)
	rows, cols := table.Dims()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, uint64(400), table.Total())

	_, err = Contingency(a, a, &Bounds{MaxA: 3, MaxB: 4})
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
}

func TestContingencyShapeMismatch(t *testing.T) {
	a := quadrants(t)
	b, _ := volume.New[volume.Label](volume.Shape{20, 19})
	_, err := Contingency(a, b, nil)
	assert.ErrorIs(t, err, volume.ErrShapeMismatch)

	_, err = LabelMapping(a, b)
	assert.ErrorIs(t, err, volume.ErrShapeMismatch)
}

func TestLabelMappingShifted(t *testing.T) {
	a := quadrants(t)
	b := plusOne(t, a)

	m, err := LabelMapping(a, b)
	require.NoError(t, err)
	assert.Equal(t, Mapping{0, 2, 3, 4, 5}, m)

	again, err := LabelMapping(a, b)
	require.NoError(t, err)
	assert.Equal(t, m, again)

	reverse, err := LabelMapping(b, a)
	require.NoError(t, err)
	assert.Equal(t, Mapping{0, 0, 1, 2, 3, 4}, reverse)
	assert.NotEqual(t, m, reverse)
}

func TestLabelMappingPartialOverlap(t *testing.T) {
	a := quadrants(t)
	b := plusOne(t, a)

	crop := func(v *volume.LabelVolume, y0, y1 int) *volume.LabelVolume {
		c, err := v.Crop([]volume.Range{{Start: y0, Stop: y1}, {Start: 0, Stop: 20}})
		require.NoError(t, err)
		return c
	}

	// Offset by 3 rows: the majority still lines up.
	m, err := LabelMapping(crop(a, 3, 20), crop(b, 0, 17))
	require.NoError(t, err)
	assert.Equal(t, Mapping{0, 2, 3, 4, 5}, m)

	// Offset by 7 rows: the lower quadrants now mostly overlap the upper ones.
	m, err = LabelMapping(crop(a, 7, 20), crop(b, 0, 13))
	require.NoError(t, err)
	assert.Equal(t, Mapping{0, 2, 3, 2, 3}, m)
}

func TestLabelMappingMergedTarget(t *testing.T) {
	a := quadrants(t)
	b := plusOne(t, a)
	for i, l := range b.Data {
		if l == 3 {
			b.Data[i] = 4
		}
	}

	m, err := LabelMapping(a, b)
	require.NoError(t, err)
	assert.Equal(t, volume.Label(4), m[2])
	assert.Equal(t, volume.Label(4), m[3])
}

func TestMappingTieBreaksToLowestLabel(t *testing.T) {
	from, _ := volume.FromData([]volume.Label{1, 1, 1, 1}, volume.Shape{2, 2})
	to, _ := volume.FromData([]volume.Label{7, 3, 3, 7}, volume.Shape{2, 2})

	m, err := LabelMapping(from, to)
	require.NoError(t, err)
	assert.Equal(t, volume.Label(3), m[1])
	assert.Equal(t, volume.Label(0), m[0])
	assert.Equal(t, volume.Label(3), m.Map(1))
	assert.Equal(t, volume.Label(42), m.Map(42))
}

func TestTableBytes(t *testing.T) {
	assert.Equal(t, uint64(5*6*8), TableBytes(4, 5))

	a, err := volume.FromData([]volume.Label{0, 4, 2}, volume.Shape{3})
	require.NoError(t, err)
	b, err := volume.FromData([]volume.Label{5, 1, 1}, volume.Shape{3})
	require.NoError(t, err)
	table, err := Contingency(a, b, nil)
	require.NoError(t, err)
	assert.Equal(t, TableBytes(4, 5), table.Bytes())
}
