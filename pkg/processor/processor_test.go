package processor

import (
	"strings"
	"testing"

	"github.com/solidmetrics/solidmetrics/internal/model"
	"github.com/solidmetrics/solidmetrics/pkg/geometry"
	"github.com/solidmetrics/solidmetrics/pkg/repair"
)

func cubeRings(size float64) [][]geometry.Vector3 {
	s := size
	return [][]geometry.Vector3{
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: s, Z: 0}, {X: s, Y: s, Z: 0}, {X: s, Y: 0, Z: 0}},
		{{X: 0, Y: 0, Z: s}, {X: s, Y: 0, Z: s}, {X: s, Y: s, Z: s}, {X: 0, Y: s, Z: s}},
		{{X: 0, Y: 0, Z: 0}, {X: s, Y: 0, Z: 0}, {X: s, Y: 0, Z: s}, {X: 0, Y: 0, Z: s}},
		{{X: 0, Y: s, Z: 0}, {X: 0, Y: s, Z: s}, {X: s, Y: s, Z: s}, {X: s, Y: s, Z: 0}},
		{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: s}, {X: 0, Y: s, Z: s}, {X: 0, Y: s, Z: 0}},
		{{X: s, Y: 0, Z: 0}, {X: s, Y: s, Z: 0}, {X: s, Y: s, Z: s}, {X: s, Y: 0, Z: s}},
	}
}

func TestProcessSuccess(t *testing.T) {
	p := New(nil, nil, nil)
	rec := &model.RawBuildingRecord{
		Index: 3,
		Attrs: map[string]string{"OBJECTID": "3"},
		Rings: cubeRings(10),
	}

	out := p.Process(rec)

	if out.Status != model.StatusSuccess {
		t.Fatalf("want success, got %s (%s)", out.Status, out.Error)
	}
	if out.Volume == nil || !out.Volume.HasVolume {
		t.Fatal("volume result missing")
	}
	if out.Surface == nil || out.Surface.Err != "" {
		t.Fatal("surface result missing or failed")
	}
	if out.Attrs["OBJECTID"] != "3" {
		t.Error("original attributes must carry through")
	}
	if out.Index != 3 {
		t.Errorf("record index must carry through, got %d", out.Index)
	}
}

func TestProcessEmptyGeometry(t *testing.T) {
	p := New(nil, nil, nil)
	out := p.Process(&model.RawBuildingRecord{Index: 0, Attrs: map[string]string{}})

	if out.Status != model.StatusFailed {
		t.Fatalf("want failed, got %s", out.Status)
	}
	if out.Error == "" {
		t.Error("failed record needs a non-empty error")
	}
	if out.Volume != nil || out.Surface != nil {
		t.Error("no analysis results should exist for an empty record")
	}
}

func TestProcessDegenerateRings(t *testing.T) {
	p := New(nil, nil, nil)
	out := p.Process(&model.RawBuildingRecord{
		Attrs: map[string]string{},
		Rings: [][]geometry.Vector3{{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}}, // too short for a face
	})

	if out.Status != model.StatusFailed {
		t.Fatalf("want failed, got %s", out.Status)
	}
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic" }

func (panicStrategy) Apply(m *geometry.Mesh) (*geometry.Mesh, string) {
	panic("pathological geometry")
}

func TestProcessRecoversPanics(t *testing.T) {
	engine := repair.NewEngine(panicStrategy{})
	p := New(engine, nil, nil)

	// The open cube forces the repair ladder, which panics.
	out := p.Process(&model.RawBuildingRecord{
		Attrs: map[string]string{},
		Rings: cubeRings(1)[:5],
	})

	if out.Status != model.StatusFailed {
		t.Fatalf("panic must degrade to a failed record, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "panic") {
		t.Errorf("error should mention the panic, got %q", out.Error)
	}
}

func TestProcessUsesRepairedMeshForSurface(t *testing.T) {
	p := New(nil, nil, nil)
	out := p.Process(&model.RawBuildingRecord{
		Attrs: map[string]string{},
		Rings: cubeRings(10)[:5], // open cube, top face restored by repair
	})

	if out.Status != model.StatusSuccess {
		t.Fatalf("want success after repair, got %s (%s)", out.Status, out.Error)
	}
	if !out.Volume.RepairApplied {
		t.Fatal("repair should have been applied")
	}
	// The filled top face counts as roof on the repaired surface.
	if out.Surface.RoofArea < 99 {
		t.Errorf("surface analysis should see the repaired roof, roof area %g", out.Surface.RoofArea)
	}
}
