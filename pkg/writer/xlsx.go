package writer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetRowLimit is the xlsx format's hard row ceiling, header included.
// Datasets beyond it get only the delimited-text output.
const SheetRowLimit = 1048576

// XLSXWriter streams rows into a single-sheet workbook.
type XLSXWriter struct {
	path string
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
}

// NewXLSX creates a streaming workbook writer. Rows are held in the stream
// writer's temp storage and the file is materialized on Close.
func NewXLSX(path, sheet string) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}
	return &XLSXWriter{path: path, file: f, sw: sw}, nil
}

// WriteRow appends one row of string cells.
func (x *XLSXWriter) WriteRow(row []string) error {
	x.row++
	if x.row > SheetRowLimit {
		return fmt.Errorf("sheet row limit %d exceeded", SheetRowLimit)
	}
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return x.sw.SetRow(cell, cells)
}

// Close flushes the stream and writes the workbook to disk.
func (x *XLSXWriter) Close() error {
	defer x.file.Close()
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Abort discards the workbook without writing it.
func (x *XLSXWriter) Abort() {
	x.file.Close()
}
