// solidmetrics - batch analysis of 3D building solids.
// Reads multipatch building geometries from a geodatabase layer and derives
// per-building volume and surface metrics into a merged tabular dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solidmetrics/solidmetrics/pkg/chunk"
	"github.com/solidmetrics/solidmetrics/pkg/config"
	pkgerrors "github.com/solidmetrics/solidmetrics/pkg/errors"
	"github.com/solidmetrics/solidmetrics/pkg/logging"
	"github.com/solidmetrics/solidmetrics/pkg/merge"
	"github.com/solidmetrics/solidmetrics/pkg/processor"
	"github.com/solidmetrics/solidmetrics/pkg/repair"
	"github.com/solidmetrics/solidmetrics/pkg/source"
	"github.com/solidmetrics/solidmetrics/pkg/source/gdb"
	"github.com/solidmetrics/solidmetrics/pkg/surface"
	"github.com/solidmetrics/solidmetrics/pkg/telemetry"
	"github.com/solidmetrics/solidmetrics/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	layerFlag     string
	limitFlag     int
	workersFlag   int
	chunkSizeFlag int
	keepChunks    bool
	configPath    string
	verbose       bool
	otlpEndpoint  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "solidmetrics <input> <output-dir>",
	Short: "Analyze 3D building solids at dataset scale",
	Long: `solidmetrics converts raw 3D building solids into per-building engineering
metrics: volume, roof/footprint/wall surface areas, building height, and
surface-complexity indicators.

Buildings are processed in independent chunks on a bounded worker pool; each
chunk persists its own intermediate file and all chunks merge into one final
dataset. A malformed geometry degrades to one failed row, never to a failed
run.

Examples:
  solidmetrics buildings.gdb ./results
  solidmetrics buildings.gdb ./results --layer Building_solid --workers 8
  solidmetrics buildings.gdb ./results --limit 1000 --keep-chunks`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
	Args:    cobra.ExactArgs(2),
	RunE:    runProcess,
}

func init() {
	rootCmd.Flags().StringVar(&layerFlag, "layer", "Building_solid", "Source layer name")
	rootCmd.Flags().IntVar(&limitFlag, "limit", 0, "Process at most N records (0 = all)")
	rootCmd.Flags().IntVarP(&workersFlag, "workers", "w", config.DefaultWorkers(), "Number of parallel workers (max 8)")
	rootCmd.Flags().IntVar(&chunkSizeFlag, "chunk-size", 100000, "Number of buildings per chunk")
	rootCmd.Flags().BoolVar(&keepChunks, "keep-chunks", false, "Keep intermediate chunk files after merging")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to yaml config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for trace export")
}

func runProcess(cmd *cobra.Command, args []string) error {
	inputPath, outputDir := args[0], args[1]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	workers := cfg.ResolveWorkers()
	if cmd.Flags().Changed("workers") && workersFlag <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", workersFlag)
	}
	if workers > 8 {
		workers = 8
	}

	if _, err := os.Stat(inputPath); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CodeInputNotFound, "input path %q", inputPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log, closeLog, err := logging.New(outputDir, verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("interrupted, letting in-flight chunks finish")
		cancel()
	}()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    "solidmetrics",
		ServiceVersion: version,
		InsecureTLS:    true,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = shutdownTracing(shutdownCtx)
	}()

	src, err := gdb.Open(inputPath, cfg.Input.Layer)
	if err != nil {
		return err
	}
	defer src.Close()

	var recordSource source.Source = src
	if cfg.Input.Limit > 0 {
		recordSource = source.Limit(recordSource, cfg.Input.Limit)
	}

	tui.PrintHeader(inputPath, cfg.Input.Layer, recordSource.Count(), workers, cfg.Processing.ChunkSize)
	bar := tui.ShowProgress(int64(recordSource.Count()), "processing buildings")

	engine := repair.NewEngine(
		repair.FillHoles{MaxEdges: cfg.Repair.MaxHoleEdges},
		repair.MergeVertices{Epsilon: cfg.Repair.VertexEpsilon},
		repair.DropDegenerateFaces{},
		repair.ConvexHullFallback{},
	)
	classifier := surface.NewClassifier()
	classifier.AngleToleranceDeg = cfg.Surface.AngleToleranceDeg
	classifier.FootprintBand = cfg.Surface.FootprintBand

	baseName := fmt.Sprintf("%s_%s", cfg.Output.BaseName, time.Now().Format("20060102_150405"))
	scheduler := &chunk.Scheduler{
		Processor: processor.New(engine, classifier, log),
		Workers:   workers,
		ChunkSize: cfg.Processing.ChunkSize,
		OutDir:    outputDir,
		BaseName:  baseName,
		Log:       log,
		Progress:  func(n int) { _ = bar.Add(n) },
	}

	summary, runErr := scheduler.Run(ctx, recordSource)
	_ = bar.Finish()
	if runErr != nil {
		log.Error("run aborted", zap.Error(runErr))
	}

	var merged *merge.Output
	if summary != nil && len(summary.ChunkPaths()) > 0 {
		merger := &merge.Merger{Log: log}
		merged, err = merger.Merge(
			summary.ChunkPaths(),
			filepath.Join(outputDir, baseName),
			summary.MergedRows(),
			cfg.Output.KeepChunks,
		)
		if err != nil {
			return err
		}
	}

	if summary != nil {
		tui.PrintChunkFailures(summary)
		tui.PrintSummary(summary, merged)
	}
	return runErr
}

// applyFlags overlays explicitly set CLI flags onto the configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("layer") {
		cfg.Input.Layer = layerFlag
	}
	if cmd.Flags().Changed("limit") {
		cfg.Input.Limit = limitFlag
	}
	if cmd.Flags().Changed("workers") {
		cfg.Processing.Workers = workersFlag
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.Processing.ChunkSize = chunkSizeFlag
	}
	if cmd.Flags().Changed("keep-chunks") {
		cfg.Output.KeepChunks = keepChunks
	}
	if cmd.Flags().Changed("otlp-endpoint") {
		cfg.Telemetry.Endpoint = otlpEndpoint
	}
}
