package rag

import (
	"labelrag/pkg/edges"
	"labelrag/pkg/features"
	"labelrag/pkg/volume"
)

// ComputeFeatures evaluates the named features (see features.Parse) for
// every edge of r over values, which must have the shape of r's label
// volume. Edge features run over the boundary values of all axes combined;
// superpixel features run over every voxel of each label. Values are
// converted to float32 first whatever their element type.
func ComputeFeatures[T volume.Number](r *Rag, values *volume.Volume[T], names []string) (*features.Table, error) {
	if err := volume.CheckSameShape(values.Shape, r.labels.Shape); err != nil {
		return nil, err
	}
	feats, err := features.ParseNames(names)
	if err != nil {
		return nil, err
	}

	var edgeGroups, spGroups *features.Groups
	if features.HasScope(feats, features.EdgeScope) {
		edgeGroups = features.NewGroups(r.NumEdges())
		for _, a := range r.axes {
			r.log.Debug().Int("axis", a.Axis).Msg("extracting edge values")
			vals, err := edges.ValuesForAxis(a.Axis, a.Mask, values)
			if err != nil {
				return nil, err
			}
			for i, v := range vals {
				edgeGroups.Add(int(a.EdgeLabels[i]), float64(v))
			}
		}
	}
	if features.HasScope(feats, features.SuperpixelScope) {
		r.log.Debug().Msg("accumulating superpixel values")
		spGroups = features.NewGroups(int(r.labels.Max()) + 1)
		for i, l := range r.labels.Data {
			spGroups.Add(int(l), float64(float32(values.Data[i])))
		}
	}
	return features.Build(r.EdgeIDs(), edgeGroups, spGroups, feats)
}
