// Package writer persists processed records: delimited text for chunk and
// merged outputs, and a spreadsheet rendition of the merged dataset when it
// fits the sheet row ceiling.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes one delimited output file with a fixed header.
type CSVWriter struct {
	file *os.File
	w    *csv.Writer
	rows int
}

// NewCSV creates path, truncating any existing file, and writes the header
// row.
func NewCSV(path string, columns []string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", path, err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &CSVWriter{file: file, w: w}, nil
}

// WriteRow appends one data row.
func (c *CSVWriter) WriteRow(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.rows++
	return nil
}

// Rows returns the number of data rows written so far, header excluded.
func (c *CSVWriter) Rows() int { return c.rows }

// Close flushes and closes the file, reporting any deferred write error.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if closeErr := c.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
