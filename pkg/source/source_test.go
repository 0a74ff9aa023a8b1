package source

import (
	"io"
	"testing"

	"github.com/solidmetrics/solidmetrics/internal/model"
)

func makeRecords(n int) []*model.RawBuildingRecord {
	recs := make([]*model.RawBuildingRecord, n)
	for i := range recs {
		recs[i] = &model.RawBuildingRecord{Index: i, Attrs: map[string]string{}}
	}
	return recs
}

func TestSliceSourceDrains(t *testing.T) {
	src := NewSliceSource([]string{"ID"}, makeRecords(3))

	if src.Count() != 3 {
		t.Errorf("count: want 3, got %d", src.Count())
	}
	for i := 0; i < 3; i++ {
		rec, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
		if rec.Index != i {
			t.Errorf("order broken: want %d, got %d", i, rec.Index)
		}
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("want io.EOF at end, got %v", err)
	}
}

func TestLimitCapsSource(t *testing.T) {
	src := Limit(NewSliceSource(nil, makeRecords(2000000)), 100)

	if src.Count() != 100 {
		t.Errorf("limited count: want 100, got %d", src.Count())
	}
	n := 0
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
	}
	if n != 100 {
		t.Errorf("limited source yielded %d records", n)
	}
}

func TestLimitNoopWhenLarger(t *testing.T) {
	base := NewSliceSource(nil, makeRecords(5))
	if src := Limit(base, 10); src != base {
		t.Error("limit beyond the source size should be a no-op")
	}
	if src := Limit(base, 0); src != base {
		t.Error("zero limit should be a no-op")
	}
}
