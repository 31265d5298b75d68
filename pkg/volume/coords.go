package volume

import "fmt"

// Coords is a (count, rank) table of coordinates stored in one row-major
// buffer. Row and Axis hand out windows onto that buffer.
type Coords struct {
	Data []int
	Rank int
}

// Len returns the number of coordinate rows.
func (c Coords) Len() int {
	if c.Rank == 0 {
		return 0
	}
	return len(c.Data) / c.Rank
}

// Row returns the i-th coordinate. The result aliases c.Data.
func (c Coords) Row(i int) []int {
	return c.Data[i*c.Rank : (i+1)*c.Rank : (i+1)*c.Rank]
}

// Axis returns the d-th coordinate of every row, in row order.
func (c Coords) Axis(d int) []int {
	n := c.Len()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = c.Data[i*c.Rank+d]
	}
	return out
}

// NonzeroCoords returns the coordinates of every true element of a boolean
// mask of the given shape, in row-major order. The coordinates are written
// straight into a single (count, rank) buffer; there is no intermediate
// per-axis index list to transpose.
func NonzeroCoords(bits []bool, shape Shape) (Coords, error) {
	if len(bits) != shape.Size() {
		return Coords{}, fmt.Errorf("%w: %d mask elements for shape %v", ErrShapeMismatch, len(bits), shape)
	}
	rank := len(shape)
	count := 0
	for _, b := range bits {
		if b {
			count++
		}
	}
	out := Coords{Data: make([]int, 0, count*rank), Rank: rank}
	if count == 0 {
		return out, nil
	}
	idx := make([]int, rank)
	for i, b := range bits {
		if b {
			out.Data = append(out.Data, idx...)
		}
		if i == len(bits)-1 {
			break
		}
		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}

// Nonzero returns the flat indices of every true element of bits.
func Nonzero(bits []bool) []int {
	out := make([]int, 0, len(bits)/8)
	for i, b := range bits {
		if b {
			out = append(out, i)
		}
	}
	return out
}
