package edges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelrag/pkg/volume"
)

// grid builds a label volume from rows of labels.
func grid(t *testing.T, rows [][]volume.Label) *volume.LabelVolume {
	t.Helper()
	v, err := volume.New[volume.Label](volume.Shape{len(rows), len(rows[0])})
	require.NoError(t, err)
	for y, row := range rows {
		for x, l := range row {
			v.Set(l, y, x)
		}
	}
	return v
}

func TestMaskForAxis(t *testing.T) {
	labels := grid(t, [][]volume.Label{
		{1, 1, 2},
		{1, 3, 2},
	})

	mask, err := MaskForAxis(labels, 1)
	require.NoError(t, err)
	assert.Equal(t, volume.Shape{2, 2}, mask.Shape)
	assert.Equal(t, []bool{false, true, true, true}, mask.Bits)
	assert.Equal(t, 3, mask.Count())

	mask, err = MaskForAxis(labels, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, mask.Axis)
	assert.Equal(t, volume.Shape{1, 3}, mask.Shape)
	assert.Equal(t, []bool{false, true, false}, mask.Bits)

	_, err = MaskForAxis(labels, 2)
	assert.ErrorIs(t, err, volume.ErrInvalidAxis)
}

func TestIDsForAxisCanonicalOrder(t *testing.T) {
	labels := grid(t, [][]volume.Label{
		{5, 1, 1},
		{2, 2, 7},
	})

	mask, ids, err := IDMask(labels, 1)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, mask.Bits)
	assert.Equal(t, []EdgeID{{1, 5}, {2, 7}}, ids)

	coords, err := mask.Coords()
	require.NoError(t, err)
	require.Equal(t, len(ids), coords.Len())
	assert.Equal(t, []int{0, 0}, coords.Row(0))
	assert.Equal(t, []int{1, 1}, coords.Row(1))
}

func TestDegenerateAxis(t *testing.T) {
	labels, err := volume.FromData([]volume.Label{1, 2, 3, 4, 5, 6}, volume.Shape{1, 2, 3})
	require.NoError(t, err)

	mask, ids, err := IDMask(labels, 0)
	require.NoError(t, err)
	assert.Equal(t, volume.Shape{0, 2, 3}, mask.Shape)
	assert.Empty(t, mask.Bits)
	assert.Zero(t, mask.Count())
	assert.Empty(t, ids)

	values, err := ValuesForAxis(0, mask, labels)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestIDsForAxisShapeMismatch(t *testing.T) {
	a := grid(t, [][]volume.Label{{1, 2}, {3, 4}})
	b := grid(t, [][]volume.Label{{1, 2, 3}})
	mask, err := MaskForAxis(a, 0)
	require.NoError(t, err)
	_, err = IDsForAxis(b, mask)
	assert.ErrorIs(t, err, volume.ErrShapeMismatch)
}

func TestUniqueEdgeLabels(t *testing.T) {
	zs := []EdgeID{{3, 4}, {1, 2}, {3, 4}}
	ys := []EdgeID{{2, 1}, {0, 9}}
	xs := []EdgeID{{1, 2}, {1, 3}}

	table := UniqueEdgeLabels(zs, ys, xs)
	assert.Equal(t, []EdgeID{{0, 9}, {1, 2}, {1, 3}, {3, 4}}, table.IDs())
	assert.Equal(t, []Row{
		{U: 0, V: 9, EdgeLabel: 0},
		{U: 1, V: 2, EdgeLabel: 1},
		{U: 1, V: 3, EdgeLabel: 2},
		{U: 3, V: 4, EdgeLabel: 3},
	}, table.Rows())

	// inputs untouched
	assert.Equal(t, []EdgeID{{2, 1}, {0, 9}}, ys)

	l, ok := table.Label(EdgeID{4, 3})
	assert.True(t, ok)
	assert.Equal(t, uint32(3), l)
	_, ok = table.Label(EdgeID{2, 3})
	assert.False(t, ok)
}

func TestUniqueEdgeLabelsOrderInvariant(t *testing.T) {
	a := []EdgeID{{5, 6}, {1, 2}, {1, 2}}
	b := []EdgeID{{2, 3}, {5, 6}}
	c := []EdgeID{{0, 1}}

	want := UniqueEdgeLabels(a, b, c)
	for _, perm := range [][][]EdgeID{{a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a}} {
		assert.True(t, want.Equal(UniqueEdgeLabels(perm...)))
	}
}

func TestUniqueEdgeLabelsIdempotent(t *testing.T) {
	table := UniqueEdgeLabels([]EdgeID{{7, 8}, {1, 9}, {1, 2}, {7, 8}})
	again := UniqueEdgeLabels(table.IDs())
	assert.True(t, table.Equal(again))
	assert.Equal(t, table.Rows(), again.Rows())

	single := UniqueEdgeLabels([]EdgeID{{2, 2}, {2, 2}})
	assert.Equal(t, 1, single.Len())
}

func TestTableLabels(t *testing.T) {
	table := UniqueEdgeLabels([]EdgeID{{1, 2}, {2, 3}})
	got, err := table.Labels([]EdgeID{{2, 3}, {1, 2}, {2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 0, 1}, got)

	_, err = table.Labels([]EdgeID{{4, 5}})
	assert.ErrorIs(t, err, ErrUnknownEdge)
}

func TestPairsFromMatrix(t *testing.T) {
	ids, err := PairsFromMatrix([]volume.Label{4, 1, 2, 3}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{{4, 1}, {2, 3}}, ids)
	assert.Equal(t, []EdgeID{{1, 4}, {2, 3}}, UniqueEdgeLabels(ids).IDs())

	_, err = PairsFromMatrix([]volume.Label{1, 2, 3}, 1, 3)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = PairsFromMatrix([]volume.Label{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestValuesForAxis(t *testing.T) {
	labels := grid(t, [][]volume.Label{
		{1, 1, 2},
		{1, 3, 2},
	})
	values, err := volume.FromData([]uint8{10, 20, 31, 40, 50, 255}, labels.Shape)
	require.NoError(t, err)

	mask, err := MaskForAxis(labels, 1)
	require.NoError(t, err)
	got, err := ValuesForAxis(1, mask, values)
	require.NoError(t, err)
	require.Len(t, got, mask.Count())
	assert.Equal(t, []float32{25.5, 45, 152.5}, got)

	mask0, err := MaskForAxis(labels, 0)
	require.NoError(t, err)
	got, err = ValuesForAxis(-2, mask0, values)
	require.NoError(t, err)
	assert.Equal(t, []float32{35}, got)
}

func TestValuesForAxisFloatInput(t *testing.T) {
	labels := grid(t, [][]volume.Label{{1, 2}})
	values, _ := volume.FromData([]float64{0.25, 0.5}, labels.Shape)
	mask, _ := MaskForAxis(labels, 1)
	got, err := ValuesForAxis(1, mask, values)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.375}, got)
}

func TestValuesForAxisShapeMismatch(t *testing.T) {
	labels := grid(t, [][]volume.Label{{1, 2}, {3, 4}})
	mask, _ := MaskForAxis(labels, 1)

	wrong, _ := volume.New[float32](volume.Shape{2, 3})
	_, err := ValuesForAxis(1, mask, wrong)
	assert.ErrorIs(t, err, volume.ErrShapeMismatch)

	right, _ := volume.New[float32](volume.Shape{2, 2})
	_, err = ValuesForAxis(0, mask, right)
	assert.ErrorIs(t, err, volume.ErrShapeMismatch)
}

func TestHandBuiltMask(t *testing.T) {
	labels, err := volume.FromData([]volume.Label{1, 2, 3, 4}, volume.Shape{1, 4})
	require.NoError(t, err)
	values, err := volume.FromData([]float32{0, 2, 4, 6}, volume.Shape{1, 4})
	require.NoError(t, err)
	mask := &Mask{
		Axis:   1,
		Source: volume.Shape{1, 4},
		Shape:  volume.Shape{1, 3},
		Bits:   []bool{true, true, true},
	}
	assert.Equal(t, 3, mask.Count())

	ids, err := IDsForAxis(labels, mask)
	require.NoError(t, err)
	assert.Equal(t, []EdgeID{{1, 2}, {2, 3}, {3, 4}}, ids)

	got, err := ValuesForAxis(1, mask, values)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 3, 5}, got)

	// Negative axes are accepted on hand-built masks too.
	mask.Axis = -1
	got, err = ValuesForAxis(1, mask, values)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestInconsistentMask(t *testing.T) {
	labels, err := volume.FromData([]volume.Label{1, 2, 3, 4}, volume.Shape{1, 4})
	require.NoError(t, err)

	tests := []struct {
		name string
		mask *Mask
		want error
	}{
		{"short bits", &Mask{Axis: 1, Source: volume.Shape{1, 4}, Shape: volume.Shape{1, 3}, Bits: []bool{true}}, volume.ErrShapeMismatch},
		{"wrong shape", &Mask{Axis: 1, Source: volume.Shape{1, 4}, Shape: volume.Shape{1, 4}, Bits: make([]bool, 4)}, volume.ErrShapeMismatch},
		{"bad axis", &Mask{Axis: 2, Source: volume.Shape{1, 4}, Shape: volume.Shape{1, 3}, Bits: make([]bool, 3)}, volume.ErrInvalidAxis},
	}
	for _, tt := range tests {
		_, err := IDsForAxis(labels, tt.mask)
		assert.ErrorIs(t, err, tt.want, tt.name)
		_, err = ValuesForAxis(1, tt.mask, labels)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}

// unravel converts a flat row-major offset into a coordinate.
func unravel(flat int, shape volume.Shape) []int {
	coord := make([]int, len(shape))
	for d := len(shape) - 1; d >= 0; d-- {
		coord[d] = flat % shape[d]
		flat /= shape[d]
	}
	return coord
}

func TestExtractionMatchesNeighbourScan(t *testing.T) {
	shape := volume.Shape{3, 4, 5}
	labels, err := volume.New[volume.Label](shape)
	require.NoError(t, err)
	values, err := volume.New[uint16](shape)
	require.NoError(t, err)
	for i := range labels.Data {
		// Runs of equal labels so that not every position is a boundary.
		labels.Data[i] = volume.Label((i / 2 * 7) % 5)
		values.Data[i] = uint16(3 * i)
	}

	for _, axis := range []int{0, 1, 2, -1, -3} {
		a, err := volume.NormalizeAxis(axis, shape.Rank())
		require.NoError(t, err)

		var wantIDs []EdgeID
		var wantValues []float32
		var wantCoords [][]int
		for flat := 0; flat < shape.Size(); flat++ {
			c := unravel(flat, shape)
			if c[a] == shape[a]-1 {
				continue
			}
			n := append([]int(nil), c...)
			n[a]++
			l, r := labels.At(c...), labels.At(n...)
			if l == r {
				continue
			}
			wantIDs = append(wantIDs, NewEdgeID(l, r))
			wantValues = append(wantValues, (float32(values.At(c...))+float32(values.At(n...)))/2)
			wantCoords = append(wantCoords, c)
		}
		require.NotEmpty(t, wantIDs, "axis %d", axis)

		mask, ids, err := IDMask(labels, axis)
		require.NoError(t, err)
		assert.Equal(t, a, mask.Axis)
		assert.Equal(t, wantIDs, ids, "axis %d", axis)

		got, err := ValuesForAxis(axis, mask, values)
		require.NoError(t, err)
		assert.Equal(t, wantValues, got, "axis %d", axis)

		coords, err := mask.Coords()
		require.NoError(t, err)
		require.Equal(t, len(wantCoords), coords.Len())
		for i, c := range wantCoords {
			assert.Equal(t, c, coords.Row(i), "axis %d row %d", axis, i)
		}
	}
}
