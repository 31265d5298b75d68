// Package rag builds the region adjacency graph of a label volume: every
// pair of labels that touch along any axis becomes an edge with a dense,
// deterministic edge label. On top of the edge table it computes edge
// features, derives per-edge decisions from a reference segmentation and
// turns decisions back into a segmentation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"labelrag/pkg/edges"
	"labelrag/pkg/volume"
)

// ErrDecisionCount indicates a decision slice whose length differs from the
// number of edges.
var ErrDecisionCount = errors.New("rag: one decision per edge required")

// AxisEdges holds the boundaries found along one axis.
type AxisEdges struct {
	// Axis is the axis the boundaries straddle.
	Axis int

	// Mask flags the voxel on the left of every boundary.
	Mask *edges.Mask

	// IDs holds the canonical label pair of every boundary position,
	// in mask order.
	IDs []edges.EdgeID

	// Coords holds the mask coordinate of every boundary position.
	Coords volume.Coords

	// EdgeLabels holds the final edge label of every boundary position.
	EdgeLabels []uint32
}

// AxialEdge is one boundary position along an axis.
type AxialEdge struct {
	U, V      volume.Label
	EdgeLabel uint32
	Coord     []int
}

// Rag is the region adjacency graph of one label volume. It is immutable
// after New returns.
type Rag struct {
	labels *volume.LabelVolume
	axes   []AxisEdges
	table  *edges.Table
	spIDs  []volume.Label
	log    zerolog.Logger
}

type options struct {
	workers int
	log     zerolog.Logger
}

// Option configures New.
type Option func(*options)

// WithWorkers bounds how many axes are processed at once. Values below 1
// mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds the RAG of labels. Axes are independent of each other and are
// scanned concurrently; labels is only read. The result does not depend on
// the number of workers.
func New(ctx context.Context, labels *volume.LabelVolume, opts ...Option) (*Rag, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}
	if err := labels.Validate(); err != nil {
		return nil, err
	}

	axes := make([]AxisEdges, labels.Rank())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for axis := range axes {
		axis := axis
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mask, ids, err := edges.IDMask(labels, axis)
			if err != nil {
				return fmt.Errorf("axis %d: %w", axis, err)
			}
			coords, err := mask.Coords()
			if err != nil {
				return fmt.Errorf("axis %d: %w", axis, err)
			}
			axes[axis] = AxisEdges{Axis: axis, Mask: mask, IDs: ids, Coords: coords}
			o.log.Debug().Int("axis", axis).Int("boundaries", len(ids)).Msg("extracted axis edges")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sources := make([][]edges.EdgeID, len(axes))
	for i := range axes {
		sources[i] = axes[i].IDs
	}
	table := edges.UniqueEdgeLabels(sources...)
	for i := range axes {
		lbls, err := table.Labels(axes[i].IDs)
		if err != nil {
			return nil, err
		}
		axes[i].EdgeLabels = lbls
	}

	r := &Rag{
		labels: labels,
		axes:   axes,
		table:  table,
		spIDs:  superpixelIDs(table.IDs()),
		log:    o.log,
	}
	o.log.Info().
		Int("edges", r.NumEdges()).
		Int("superpixels", r.NumSP()).
		Msg("built region adjacency graph")
	return r, nil
}

func superpixelIDs(ids []edges.EdgeID) []volume.Label {
	sp := make([]volume.Label, 0, 2*len(ids))
	for _, id := range ids {
		sp = append(sp, id.U, id.V)
	}
	slices.Sort(sp)
	return slices.Compact(sp)
}

// Labels returns the label volume the graph was built from.
func (r *Rag) Labels() *volume.LabelVolume { return r.labels }

// Table returns the deduplicated edge table.
func (r *Rag) Table() *edges.Table { return r.table }

// NumEdges returns the number of distinct edges.
func (r *Rag) NumEdges() int { return r.table.Len() }

// EdgeIDs returns the edge ids in edge-label order. The slice is shared.
func (r *Rag) EdgeIDs() []edges.EdgeID { return r.table.IDs() }

// SuperpixelIDs returns the sorted labels that take part in at least one
// edge. Labels need not be consecutive. The slice is shared.
func (r *Rag) SuperpixelIDs() []volume.Label { return r.spIDs }

// NumSP returns the number of labels taking part in an edge.
func (r *Rag) NumSP() int { return len(r.spIDs) }

// MaxSP returns the largest label taking part in an edge, or 0 if there
// are no edges.
func (r *Rag) MaxSP() volume.Label {
	if len(r.spIDs) == 0 {
		return 0
	}
	return r.spIDs[len(r.spIDs)-1]
}

// Axes returns the per-axis boundary data, indexed by axis.
func (r *Rag) Axes() []AxisEdges { return r.axes }

// AxialEdges lists every boundary position along axis with its labels, edge
// label and left-hand coordinate.
func (r *Rag) AxialEdges(axis int) ([]AxialEdge, error) {
	axis, err := volume.NormalizeAxis(axis, len(r.axes))
	if err != nil {
		return nil, err
	}
	a := r.axes[axis]
	out := make([]AxialEdge, len(a.IDs))
	for i, id := range a.IDs {
		out[i] = AxialEdge{U: id.U, V: id.V, EdgeLabel: a.EdgeLabels[i], Coord: a.Coords.Row(i)}
	}
	return out, nil
}
