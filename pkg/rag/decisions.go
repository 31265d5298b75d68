package rag

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"labelrag/pkg/edges"
	"labelrag/pkg/overlap"
	"labelrag/pkg/volume"
)

// EdgeDecisions compares r against a reference segmentation of the same
// shape. Every label of r is mapped to the reference label it overlaps most;
// an edge is "on" (true) when its two labels map to different reference
// labels and "off" when the reference merges them. The result is in
// edge-label order.
func (r *Rag) EdgeDecisions(groundtruth *volume.LabelVolume) ([]bool, error) {
	table, err := overlap.Contingency(r.labels, groundtruth, nil)
	if err != nil {
		return nil, err
	}
	r.log.Debug().Str("table", humanize.Bytes(table.Bytes())).Msg("built contingency table")
	return r.DecisionsFromOverlap(table), nil
}

// DecisionsFromOverlap is EdgeDecisions for an already built contingency
// table whose rows are the labels of r.
func (r *Rag) DecisionsFromOverlap(table *overlap.ContingencyTable) []bool {
	mapping := table.Mapping()
	ids := r.EdgeIDs()
	decisions := make([]bool, len(ids))
	for i, id := range ids {
		decisions[i] = mapping.Map(id.U) != mapping.Map(id.V)
	}
	return decisions
}

// EdgeDecisionMap is EdgeDecisions keyed by edge id.
func (r *Rag) EdgeDecisionMap(groundtruth *volume.LabelVolume) (map[edges.EdgeID]bool, error) {
	decisions, err := r.EdgeDecisions(groundtruth)
	if err != nil {
		return nil, err
	}
	out := make(map[edges.EdgeID]bool, len(decisions))
	for i, id := range r.EdgeIDs() {
		out[id] = decisions[i]
	}
	return out, nil
}

// SegmentationFromDecisions merges every pair of labels joined by an "off"
// edge, transitively, and returns the relabeled volume. decisions must hold
// one entry per edge in edge-label order.
//
// The merged regions are numbered from 1 in ascending order of their
// smallest original label, so the output is deterministic.
func (r *Rag) SegmentationFromDecisions(decisions []bool) (*volume.LabelVolume, error) {
	ids := r.EdgeIDs()
	if len(decisions) != len(ids) {
		return nil, fmt.Errorf("%w: got %d decisions for %d edges", ErrDecisionCount, len(decisions), len(ids))
	}

	g := simple.NewUndirectedGraph()
	present := make([]bool, int(r.labels.Max())+1)
	for _, l := range r.labels.Data {
		if !present[l] {
			present[l] = true
			g.AddNode(simple.Node(l))
		}
	}
	for i, id := range ids {
		if !decisions[i] && id.U != id.V {
			g.SetEdge(simple.Edge{F: simple.Node(id.U), T: simple.Node(id.V)})
		}
	}

	components := topo.ConnectedComponents(g)
	r.log.Debug().Int("components", len(components)).Msg("merged labels from decisions")
	firsts := make([]int64, len(components))
	for i, c := range components {
		firsts[i] = minID(c)
	}
	order := make([]int, len(components))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case firsts[a] < firsts[b]:
			return -1
		case firsts[a] > firsts[b]:
			return 1
		}
		return 0
	})

	mapping := make([]volume.Label, len(present))
	for rank, ci := range order {
		for _, n := range components[ci] {
			mapping[n.ID()] = volume.Label(rank + 1)
		}
	}

	out, err := volume.New[volume.Label](r.labels.Shape)
	if err != nil {
		return nil, err
	}
	for i, l := range r.labels.Data {
		out.Data[i] = mapping[l]
	}
	return out, nil
}

func minID(nodes []graph.Node) int64 {
	m := nodes[0].ID()
	for _, n := range nodes[1:] {
		if n.ID() < m {
			m = n.ID()
		}
	}
	return m
}
