// Package features computes region statistics over the values sampled on
// RAG edges and over whole superpixels, and lays them out as a table with
// one row per edge.
package features

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFeature indicates a feature name that cannot be parsed.
var ErrUnknownFeature = errors.New("features: unknown feature name")

// Scope says which voxels a feature is computed over.
type Scope string

const (
	// EdgeScope features use the averaged values on the edge itself.
	EdgeScope Scope = "edge"
	// SuperpixelScope features use every voxel of the two adjacent labels
	// and are reported as their sum and absolute difference.
	SuperpixelScope Scope = "sp"
)

// Statistic is a per-region reduction.
type Statistic string

const (
	Count     Statistic = "count"
	Sum       Statistic = "sum"
	Minimum   Statistic = "minimum"
	Maximum   Statistic = "maximum"
	Mean      Statistic = "mean"
	Variance  Statistic = "variance"
	Skewness  Statistic = "skewness"
	Kurtosis  Statistic = "kurtosis"
	Quantiles Statistic = "quantiles"
)

var statistics = map[Statistic]bool{
	Count: true, Sum: true, Minimum: true, Maximum: true, Mean: true,
	Variance: true, Skewness: true, Kurtosis: true, Quantiles: true,
}

var quantileLevels = map[string]float64{
	"0": 0, "10": 0.10, "25": 0.25, "50": 0.50, "75": 0.75, "90": 0.90, "100": 1,
}

// Feature is a parsed feature name such as "edge_mean" or "sp_quantiles_75".
type Feature struct {
	Name     string
	Scope    Scope
	Stat     Statistic
	Quantile float64
}

// Parse parses a single feature name. Names are case-insensitive.
func Parse(name string) (Feature, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	f := Feature{Name: lower}

	switch {
	case strings.HasPrefix(lower, "edge_"):
		f.Scope = EdgeScope
	case strings.HasPrefix(lower, "sp_"):
		f.Scope = SuperpixelScope
	default:
		return Feature{}, fmt.Errorf("%w: %q needs an edge_ or sp_ prefix", ErrUnknownFeature, name)
	}
	rest := strings.TrimPrefix(lower, string(f.Scope)+"_")

	stat, suffix, hasSuffix := strings.Cut(rest, "_")
	f.Stat = Statistic(stat)
	if !statistics[f.Stat] {
		return Feature{}, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	if f.Stat == Quantiles {
		q, ok := quantileLevels[suffix]
		if !hasSuffix || !ok {
			return Feature{}, fmt.Errorf("%w: %q needs a quantile suffix (0, 10, 25, 50, 75, 90, 100)", ErrUnknownFeature, name)
		}
		f.Quantile = q
	} else if hasSuffix {
		return Feature{}, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	return f, nil
}

// ParseNames parses every name, dropping duplicates but keeping the order
// of first appearance.
func ParseNames(names []string) ([]Feature, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Feature, 0, len(names))
	for _, n := range names {
		f, err := Parse(n)
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out, nil
}

// Columns returns the output column names of f.
func (f Feature) Columns() []string {
	if f.Scope == SuperpixelScope {
		return []string{f.Name + "_sum", f.Name + "_difference"}
	}
	return []string{f.Name}
}

// HasScope reports whether any of feats has the given scope.
func HasScope(feats []Feature, s Scope) bool {
	for _, f := range feats {
		if f.Scope == s {
			return true
		}
	}
	return false
}
