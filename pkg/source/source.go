// Package source defines the record source boundary: anything that yields
// raw building records with a known total count.
package source

import (
	"io"

	"github.com/solidmetrics/solidmetrics/internal/model"
)

// Source yields raw building records from a dataset layer. Next returns
// io.EOF when the stream is exhausted. Implementations degrade per record
// on malformed geometry — only structural failures (dataset or layer not
// found) surface before iteration starts.
type Source interface {
	// Schema returns the attribute field names in source order.
	Schema() []string

	// Count returns the total number of records the source will yield.
	Count() int

	// Next returns the next record, or io.EOF at the end of the stream.
	Next() (*model.RawBuildingRecord, error)

	Close() error
}

// Limit caps a source at n records. A negative or zero n leaves the source
// unchanged.
func Limit(s Source, n int) Source {
	if n <= 0 || n >= s.Count() {
		return s
	}
	return &limited{Source: s, remaining: n, count: n}
}

type limited struct {
	Source
	remaining int
	count     int
}

func (l *limited) Count() int { return l.count }

func (l *limited) Next() (*model.RawBuildingRecord, error) {
	if l.remaining <= 0 {
		return nil, io.EOF
	}
	rec, err := l.Source.Next()
	if err != nil {
		return nil, err
	}
	l.remaining--
	return rec, nil
}

// SliceSource serves records from memory. Used by tests and synthetic runs.
type SliceSource struct {
	schema  []string
	records []*model.RawBuildingRecord
	pos     int
}

// NewSliceSource creates a source over the given records.
func NewSliceSource(schema []string, records []*model.RawBuildingRecord) *SliceSource {
	return &SliceSource{schema: schema, records: records}
}

func (s *SliceSource) Schema() []string { return s.schema }

func (s *SliceSource) Count() int { return len(s.records) }

func (s *SliceSource) Next() (*model.RawBuildingRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *SliceSource) Close() error { return nil }
