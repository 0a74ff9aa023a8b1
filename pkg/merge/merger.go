// Package merge concatenates chunk outputs into the final dataset. Order
// follows chunk sequence numbers, never completion order, so merged rows
// keep the input record order.
package merge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/solidmetrics/solidmetrics/pkg/writer"
)

// SheetName is the sheet holding the merged dataset in the spreadsheet
// output.
const SheetName = "Building_Analysis"

// Output describes the merged files.
type Output struct {
	CSVPath  string
	XLSXPath string // empty when the spreadsheet output was skipped
	Rows     int
}

// Merger combines chunk files into the final outputs.
type Merger struct {
	Log *zap.Logger

	// RowLimit is the spreadsheet row ceiling, header included. Zero means
	// the format default.
	RowLimit int
}

// Merge streams every chunk file, in the given sequence order, into
// <base>.csv and — when header plus totalRows fits the sheet ceiling —
// <base>.xlsx. The spreadsheet is skipped entirely rather than truncated.
// Chunk files are deleted after a successful merge unless keepChunks is
// set; deletion failures are logged and ignored.
func (m *Merger) Merge(chunkPaths []string, base string, totalRows int, keepChunks bool) (*Output, error) {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	rowLimit := m.RowLimit
	if rowLimit <= 0 {
		rowLimit = writer.SheetRowLimit
	}
	if len(chunkPaths) == 0 {
		return nil, fmt.Errorf("no chunk files to merge")
	}

	out := &Output{CSVPath: base + ".csv"}

	withSheet := totalRows+1 <= rowLimit
	if !withSheet {
		log.Warn("row count exceeds spreadsheet ceiling, writing delimited output only",
			zap.Int("rows", totalRows),
			zap.Int("limit", rowLimit))
	}

	csvFile, err := os.Create(out.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create merged output: %w", err)
	}
	defer csvFile.Close()
	csvOut := csv.NewWriter(csvFile)

	var xlsxOut *writer.XLSXWriter
	if withSheet {
		out.XLSXPath = base + ".xlsx"
		xlsxOut, err = writer.NewXLSX(out.XLSXPath, SheetName)
		if err != nil {
			return nil, err
		}
	}

	writeRow := func(row []string) error {
		if err := csvOut.Write(row); err != nil {
			return err
		}
		if xlsxOut != nil {
			return xlsxOut.WriteRow(row)
		}
		return nil
	}

	headerDone := false
	for _, path := range chunkPaths {
		rows, err := m.appendChunk(path, &headerDone, writeRow)
		if err != nil {
			if xlsxOut != nil {
				xlsxOut.Abort()
			}
			return nil, fmt.Errorf("failed to merge %q: %w", path, err)
		}
		out.Rows += rows
		log.Debug("merged chunk", zap.String("path", path), zap.Int("rows", rows))
	}

	csvOut.Flush()
	if err := csvOut.Error(); err != nil {
		if xlsxOut != nil {
			xlsxOut.Abort()
		}
		return nil, fmt.Errorf("failed to write merged output: %w", err)
	}
	if xlsxOut != nil {
		if err := xlsxOut.Close(); err != nil {
			return nil, err
		}
	}

	if !keepChunks {
		for _, path := range chunkPaths {
			if err := os.Remove(path); err != nil {
				log.Warn("could not delete chunk file", zap.String("path", path), zap.Error(err))
			}
		}
	}

	log.Info("merge complete",
		zap.Int("rows", out.Rows),
		zap.String("csv", out.CSVPath),
		zap.String("xlsx", out.XLSXPath))
	return out, nil
}

// appendChunk copies one chunk file's rows through writeRow. The header of
// the first chunk becomes the merged header; later headers are skipped.
func (m *Merger) appendChunk(path string, headerDone *bool, writeRow func([]string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("chunk file is empty")
	}
	if err != nil {
		return 0, err
	}
	if !*headerDone {
		if err := writeRow(header); err != nil {
			return 0, err
		}
		*headerDone = true
	}

	rows := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if err := writeRow(row); err != nil {
			return rows, err
		}
		rows++
	}
}
