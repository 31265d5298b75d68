// Package analysis runs the end-to-end region adjacency pipeline over image
// stacks: it loads a superpixel label stack, builds its region adjacency
// graph, computes edge features from an intensity stack, derives merge
// decisions from a reference segmentation and exports the resulting tables.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"labelrag/internal/models"
	"labelrag/pkg/export"
	"labelrag/pkg/features"
	"labelrag/pkg/overlap"
	"labelrag/pkg/rag"
	"labelrag/pkg/visualization"
	"labelrag/pkg/volume"
)

// Output file names inside Params.OutputDir.
const (
	EdgesFile     = "edges.arrow"
	FeaturesFile  = "features.arrow"
	DecisionsFile = "decisions.arrow"

	// SegmentationDir receives the merged segmentation as z-slices.
	SegmentationDir = "segmentation"
)

// Params holds the analysis parameters.
type Params struct {
	// LabelsDir is the directory of label slices. Required.
	LabelsDir string

	// ValuesDir is the directory of intensity slices. Features are only
	// computed when it is set.
	ValuesDir string

	// GroundtruthDir is the directory of reference segmentation slices.
	// Decisions are only computed when it is set.
	GroundtruthDir string

	// OutputDir receives the Arrow tables. Nothing is written when empty.
	OutputDir string

	// Features lists the feature names to compute.
	Features []string

	// Workers bounds the axes processed concurrently.
	Workers int

	// Compress enables zstd compression of the exported tables.
	Compress bool
}

// Summary describes a finished analysis.
type Summary struct {
	Shape       volume.Shape
	Voxels      int
	Superpixels int
	Edges       int

	// AxisBoundaries counts boundary voxels per axis.
	AxisBoundaries []int

	// MergedEdges counts edges the reference segmentation switches off.
	MergedEdges int

	// Regions is the number of regions left after merging.
	Regions int

	// ContingencyBytes is the footprint of the overlap table.
	ContingencyBytes uint64

	Stacks []models.StackInfo
	Files  []string
}

// Analyzer runs the pipeline for one set of stacks.
type Analyzer struct {
	params *Params
	log    zerolog.Logger

	labels    *volume.LabelVolume
	graph     *rag.Rag
	features  *features.Table
	decisions []bool
	merged    *volume.LabelVolume
	tableSize uint64
	stacks    []models.StackInfo
	files     []string
}

// NewAnalyzer creates an analyzer for params.
func NewAnalyzer(params *Params, log zerolog.Logger) *Analyzer {
	return &Analyzer{params: params, log: log}
}

// Process runs the complete pipeline.
func (a *Analyzer) Process(ctx context.Context) error {
	if a.params.LabelsDir == "" {
		return errors.New("no label directory given")
	}

	a.log.Info().Str("dir", a.params.LabelsDir).Msg("Step 1: loading label stack")
	labels, info, err := loadLabelStack(a.params.LabelsDir, models.LabelStack)
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}
	a.labels = labels
	a.addStack(info)

	a.log.Info().Int("workers", a.params.Workers).Msg("Step 2: building region adjacency graph")
	a.graph, err = rag.New(ctx, labels, rag.WithWorkers(a.params.Workers), rag.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	if a.params.ValuesDir != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.log.Info().Strs("features", a.params.Features).Msg("Step 3: computing edge features")
		if err := a.computeFeatures(); err != nil {
			return err
		}
	}

	if a.params.GroundtruthDir != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.log.Info().Str("dir", a.params.GroundtruthDir).Msg("Step 4: deriving edge decisions")
		if err := a.computeDecisions(); err != nil {
			return err
		}
	}

	if a.params.OutputDir != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.log.Info().Str("dir", a.params.OutputDir).Msg("Step 5: exporting tables")
		if err := a.export(); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) addStack(info models.StackInfo) {
	a.stacks = append(a.stacks, info)
	a.log.Debug().
		Str("kind", string(info.Kind)).
		Int("depth", info.Depth).
		Int("height", info.Height).
		Int("width", info.Width).
		Str("size", humanize.Bytes(info.Bytes)).
		Msg("loaded stack")
}

func (a *Analyzer) computeFeatures() error {
	values, info, err := loadValueStack(a.params.ValuesDir)
	if err != nil {
		return fmt.Errorf("failed to load values: %w", err)
	}
	a.addStack(info)

	a.features, err = rag.ComputeFeatures(a.graph, values, a.params.Features)
	if err != nil {
		return fmt.Errorf("failed to compute features: %w", err)
	}
	return nil
}

func (a *Analyzer) computeDecisions() error {
	gt, info, err := loadLabelStack(a.params.GroundtruthDir, models.GroundtruthStack)
	if err != nil {
		return fmt.Errorf("failed to load groundtruth: %w", err)
	}
	a.addStack(info)

	table, err := overlap.Contingency(a.labels, gt, nil)
	if err != nil {
		return fmt.Errorf("failed to derive decisions: %w", err)
	}
	a.tableSize = table.Bytes()
	a.log.Debug().Str("table", humanize.Bytes(a.tableSize)).Msg("built contingency table")
	a.decisions = a.graph.DecisionsFromOverlap(table)
	seg, err := a.graph.SegmentationFromDecisions(a.decisions)
	if err != nil {
		return fmt.Errorf("failed to merge regions: %w", err)
	}
	a.merged = seg
	return nil
}

func (a *Analyzer) export() error {
	if err := os.MkdirAll(a.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	opts := export.Options{Compress: a.params.Compress}

	path := filepath.Join(a.params.OutputDir, EdgesFile)
	if err := export.WriteEdgeTable(path, a.graph.Table(), opts); err != nil {
		return err
	}
	a.files = append(a.files, path)

	if a.features != nil {
		path = filepath.Join(a.params.OutputDir, FeaturesFile)
		if err := export.WriteFeatureTable(path, a.features, opts); err != nil {
			return err
		}
		a.files = append(a.files, path)
	}
	if a.decisions != nil {
		path = filepath.Join(a.params.OutputDir, DecisionsFile)
		if err := export.WriteDecisionTable(path, a.graph.Table(), a.decisions, opts); err != nil {
			return err
		}
		a.files = append(a.files, path)
	}
	if a.merged != nil {
		if err := a.exportSegmentation(); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) exportSegmentation() error {
	viewer, err := visualization.NewViewer(a.merged)
	if errors.Is(err, visualization.ErrLabelTooLarge) {
		a.log.Warn().Err(err).Msg("skipping segmentation slices")
		return nil
	}
	if err != nil {
		return err
	}
	files, err := viewer.SaveSliceSequence("z", filepath.Join(a.params.OutputDir, SegmentationDir))
	if err != nil {
		return fmt.Errorf("failed to save segmentation: %w", err)
	}
	a.files = append(a.files, files...)
	return nil
}

// Segmentation returns the labels merged along the "off" edges, nil when no
// groundtruth was given.
func (a *Analyzer) Segmentation() *volume.LabelVolume { return a.merged }

// Graph returns the region adjacency graph, nil before Process.
func (a *Analyzer) Graph() *rag.Rag { return a.graph }

// Features returns the feature table, nil when no values were given.
func (a *Analyzer) Features() *features.Table { return a.features }

// Decisions returns the edge decisions, nil when no groundtruth was given.
func (a *Analyzer) Decisions() []bool { return a.decisions }

// Summary reports what Process found.
func (a *Analyzer) Summary() Summary {
	s := Summary{
		ContingencyBytes: a.tableSize,
		Stacks:           a.stacks,
		Files:            a.files,
	}
	if a.graph == nil {
		return s
	}
	s.Shape = a.labels.Shape.Clone()
	s.Voxels = a.labels.Size()
	s.Superpixels = a.graph.NumSP()
	s.Edges = a.graph.NumEdges()
	for _, ax := range a.graph.Axes() {
		s.AxisBoundaries = append(s.AxisBoundaries, ax.Mask.Count())
	}
	if a.merged != nil {
		s.Regions = int(a.merged.Max())
	}
	for _, on := range a.decisions {
		if !on {
			s.MergedEdges++
		}
	}
	return s
}
