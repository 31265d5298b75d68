package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"labelrag/internal/logger"
	"labelrag/pkg/analysis"
	"labelrag/pkg/config"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "labelrag.yaml", "Configuration file (.yaml or .toml)")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	labelsDir := flag.String("labels", "", "Directory containing the label slices")
	valuesDir := flag.String("values", "", "Directory containing the intensity slices")
	groundtruthDir := flag.String("groundtruth", "", "Directory containing the reference segmentation slices")
	outputDir := flag.String("output", "", "Directory to write the Arrow tables to")
	featureList := flag.String("features", "", "Comma-separated feature names, e.g. edge_mean,sp_count")
	workers := flag.Int("workers", 0, "Number of axes processed concurrently (default: all CPUs)")
	logFile := flag.String("log-file", "", "Write logs to this rotating file instead of stderr")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "labels":
			cfg.Input.LabelsDir = *labelsDir
		case "values":
			cfg.Input.ValuesDir = *valuesDir
		case "groundtruth":
			cfg.Input.GroundtruthDir = *groundtruthDir
		case "output":
			cfg.Output.Dir = *outputDir
		case "features":
			cfg.Processing.Features = splitList(*featureList)
		case "workers":
			cfg.Processing.Workers = *workers
		case "log-file":
			cfg.Logging.File = *logFile
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})

	if cfg.Input.LabelsDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	log, closer := logger.New(logger.Options{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Level:      cfg.Logging.Level,
		Verbose:    cfg.Output.Verbose,
	})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := &analysis.Params{
		LabelsDir:      cfg.Input.LabelsDir,
		ValuesDir:      cfg.Input.ValuesDir,
		GroundtruthDir: cfg.Input.GroundtruthDir,
		OutputDir:      cfg.Output.Dir,
		Features:       cfg.Processing.Features,
		Workers:        cfg.Processing.Workers,
		Compress:       cfg.Output.Compress,
	}
	analyzer := analysis.NewAnalyzer(params, log)

	startTime := time.Now()
	if err := analyzer.Process(ctx); err != nil {
		log.Error().Err(err).Msg("analysis failed")
		closer.Close()
		os.Exit(1)
	}
	printSummary(analyzer.Summary(), time.Since(startTime))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSummary(s analysis.Summary, elapsed time.Duration) {
	fmt.Printf("\nAnalysis completed in %.2f seconds\n", elapsed.Seconds())
	fmt.Println("=======================================")
	fmt.Printf("Volume shape: %v (%s voxels)\n", s.Shape, humanize.Comma(int64(s.Voxels)))
	for _, st := range s.Stacks {
		fmt.Printf("- %s stack: %s, %s\n", st.Kind, st.Dir, humanize.Bytes(st.Bytes))
	}
	fmt.Printf("Superpixels: %s\n", humanize.Comma(int64(s.Superpixels)))
	fmt.Printf("Edges: %s\n", humanize.Comma(int64(s.Edges)))
	for axis, n := range s.AxisBoundaries {
		fmt.Printf("- axis %d boundaries: %s\n", axis, humanize.Comma(int64(n)))
	}
	if s.ContingencyBytes > 0 {
		fmt.Printf("Contingency table: %s\n", humanize.Bytes(s.ContingencyBytes))
		fmt.Printf("Merged edges: %s, regions after merging: %s\n",
			humanize.Comma(int64(s.MergedEdges)), humanize.Comma(int64(s.Regions)))
	}
	if len(s.Files) > 0 {
		fmt.Println("\nTables written:")
		for _, f := range s.Files {
			fmt.Println(f)
		}
	}
}
