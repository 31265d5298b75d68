package features

import (
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Groups buckets sample values by region index (an edge label or a
// superpixel label).
type Groups struct {
	values [][]float64
	sorted []bool
}

// NewGroups returns empty buckets for regions [0, n).
func NewGroups(n int) *Groups {
	return &Groups{
		values: make([][]float64, n),
		sorted: make([]bool, n),
	}
}

// Len returns the number of regions.
func (g *Groups) Len() int { return len(g.values) }

// Add appends v to the bucket of region.
func (g *Groups) Add(region int, v float64) {
	g.values[region] = append(g.values[region], v)
	g.sorted[region] = false
}

// Values returns the samples of region. The slice is shared.
func (g *Groups) Values(region int) []float64 { return g.values[region] }

// Statistic reduces the samples of region. Empty regions yield 0 for count
// and sum and NaN otherwise; skewness needs three samples and kurtosis four.
// Variance is the population variance.
func (g *Groups) Statistic(region int, f Feature) float64 {
	x := g.values[region]
	switch f.Stat {
	case Count:
		return float64(len(x))
	case Sum:
		return floats.Sum(x)
	}
	if len(x) == 0 {
		return math.NaN()
	}

	switch f.Stat {
	case Minimum:
		return floats.Min(x)
	case Maximum:
		return floats.Max(x)
	case Mean:
		return stat.Mean(x, nil)
	case Variance:
		return stat.PopVariance(x, nil)
	case Skewness:
		if len(x) < 3 {
			return math.NaN()
		}
		return stat.Skew(x, nil)
	case Kurtosis:
		if len(x) < 4 {
			return math.NaN()
		}
		return stat.ExKurtosis(x, nil)
	case Quantiles:
		if !g.sorted[region] {
			slices.Sort(x)
			g.sorted[region] = true
		}
		return stat.Quantile(f.Quantile, stat.Empirical, x, nil)
	}
	return math.NaN()
}
