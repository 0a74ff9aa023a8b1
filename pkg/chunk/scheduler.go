// Package chunk partitions the record stream into fixed-size chunks and
// runs them on a bounded worker pool. Each chunk is an indivisible unit of
// work: one worker processes its records sequentially and persists the
// chunk's output file before taking the next chunk. Chunk failures are
// recorded, never fatal.
package chunk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solidmetrics/solidmetrics/internal/model"
	pkgerrors "github.com/solidmetrics/solidmetrics/pkg/errors"
	"github.com/solidmetrics/solidmetrics/pkg/processor"
	"github.com/solidmetrics/solidmetrics/pkg/source"
	"github.com/solidmetrics/solidmetrics/pkg/writer"
)

// Report is the terminal state of one chunk.
type Report struct {
	Seq       int
	Path      string
	Records   int
	Succeeded int
	Failed    int
	Volumes   int
	Err       error
}

// Summary describes one completed run.
type Summary struct {
	RunID         string
	TotalRecords  int
	ChunkCount    int
	ChunksFailed  int
	RowsSucceeded int
	RowsFailed    int
	Volumes       int
	Reports       []Report
	Elapsed       time.Duration
}

// ChunkPaths returns the output files of successfully persisted chunks in
// sequence order.
func (s *Summary) ChunkPaths() []string {
	paths := make([]string, 0, len(s.Reports))
	for _, r := range s.Reports {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// MergedRows returns the number of rows the merged output will contain:
// every record of every persisted chunk.
func (s *Summary) MergedRows() int {
	rows := 0
	for _, r := range s.Reports {
		if r.Err == nil {
			rows += r.Records
		}
	}
	return rows
}

// Scheduler dispatches chunks to a fixed-size worker pool.
type Scheduler struct {
	Processor *processor.Processor
	Workers   int
	ChunkSize int
	OutDir    string
	BaseName  string
	Log       *zap.Logger

	// Progress, when set, is called once per processed record. It must be
	// safe for concurrent use.
	Progress func(n int)
}

// Run slices src into contiguous chunks of ChunkSize records and processes
// them on Workers workers. It returns only after every dispatched chunk has
// reported a terminal state. A source with zero records is a no-op success.
func (s *Scheduler) Run(ctx context.Context, src source.Source) (*Summary, error) {
	if s.Workers <= 0 {
		return nil, pkgerrors.BadConfig(fmt.Sprintf("worker count must be positive, got %d", s.Workers))
	}
	if s.ChunkSize <= 0 {
		return nil, pkgerrors.BadConfig(fmt.Sprintf("chunk size must be positive, got %d", s.ChunkSize))
	}
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	total := src.Count()
	numChunks := (total + s.ChunkSize - 1) / s.ChunkSize
	columns := model.OutputColumns(src.Schema())

	summary := &Summary{
		RunID:        uuid.NewString(),
		TotalRecords: total,
		ChunkCount:   numChunks,
	}
	log.Info("starting run",
		zap.String("run_id", summary.RunID),
		zap.Int("records", total),
		zap.Int("chunks", numChunks),
		zap.Int("workers", s.Workers),
		zap.Int("chunk_size", s.ChunkSize))

	tracer := otel.Tracer("solidmetrics/chunk")
	ctx, runSpan := tracer.Start(ctx, "run")
	defer runSpan.End()
	runSpan.SetAttributes(
		attribute.String("run.id", summary.RunID),
		attribute.Int("run.records", total),
		attribute.Int("run.chunks", numChunks))

	reports := make(chan Report, numChunks)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)

	var read atomic.Int64
	var readErr error
	seq := 0
	for readErr == nil {
		records, err := readChunk(src, s.ChunkSize, &read, log)
		if err != nil && err != io.EOF {
			readErr = err
		}
		if len(records) > 0 {
			chunkSeq := seq
			seq++
			g.Go(func() error {
				reports <- s.processChunk(gctx, tracer, chunkSeq, columns, src.Schema(), records)
				return nil
			})
		}
		if err != nil {
			break
		}
	}

	// A mid-stream source failure leaves fewer chunks than the count
	// promised; report what was actually dispatched.
	summary.ChunkCount = seq

	// Every dispatched chunk runs to completion even when reading stopped
	// early; only then does the run report.
	_ = g.Wait()
	close(reports)

	for r := range reports {
		summary.Reports = append(summary.Reports, r)
		if r.Err != nil {
			summary.ChunksFailed++
			log.Error("chunk failed", zap.Int("chunk", r.Seq), zap.Error(r.Err))
			continue
		}
		summary.RowsSucceeded += r.Succeeded
		summary.RowsFailed += r.Failed
		summary.Volumes += r.Volumes
	}
	sort.Slice(summary.Reports, func(i, j int) bool {
		return summary.Reports[i].Seq < summary.Reports[j].Seq
	})
	summary.Elapsed = time.Since(start)

	log.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("chunks", summary.ChunkCount),
		zap.Int("chunks_failed", summary.ChunksFailed),
		zap.Int("rows_succeeded", summary.RowsSucceeded),
		zap.Int("rows_failed", summary.RowsFailed),
		zap.Duration("elapsed", summary.Elapsed))

	if readErr != nil {
		return summary, fmt.Errorf("record source failed after %d records: %w", read.Load(), readErr)
	}
	return summary, nil
}

// readChunk reads up to size records from src. It returns io.EOF alongside
// the final partial chunk.
func readChunk(src source.Source, size int, read *atomic.Int64, log *zap.Logger) ([]*model.RawBuildingRecord, error) {
	records := make([]*model.RawBuildingRecord, 0, size)
	for len(records) < size {
		rec, err := src.Next()
		if err != nil {
			return records, err
		}
		records = append(records, rec)
		if n := read.Add(1); n%100000 == 0 {
			log.Info("reading records", zap.Int64("read", n))
		}
	}
	return records, nil
}

// processChunk runs the processor over every record of one chunk and
// persists the chunk's output file. Any failure to persist marks the whole
// chunk failed; record-level failures become failed rows inside it.
func (s *Scheduler) processChunk(ctx context.Context, tracer trace.Tracer, seq int, columns, schema []string, records []*model.RawBuildingRecord) Report {
	report := Report{
		Seq:     seq,
		Path:    filepath.Join(s.OutDir, fmt.Sprintf("%s_chunk_%04d.csv", s.BaseName, seq)),
		Records: len(records),
	}

	_, span := tracer.Start(ctx, "chunk")
	defer span.End()
	span.SetAttributes(attribute.Int("chunk.seq", seq), attribute.Int("chunk.records", len(records)))

	out, err := writer.NewCSV(report.Path, columns)
	if err != nil {
		report.Err = pkgerrors.ChunkWrite(seq, err)
		return report
	}

	for _, rec := range records {
		processed := s.Processor.Process(rec)
		if err := out.WriteRow(processed.Row(schema)); err != nil {
			out.Close()
			os.Remove(report.Path)
			report.Err = pkgerrors.ChunkWrite(seq, err)
			return report
		}
		if processed.Status == model.StatusSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
		if processed.Volume != nil && processed.Volume.HasVolume {
			report.Volumes++
		}
		if s.Progress != nil {
			s.Progress(1)
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(report.Path)
		report.Err = pkgerrors.ChunkWrite(seq, err)
		return report
	}
	return report
}
