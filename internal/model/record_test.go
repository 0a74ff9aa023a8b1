package model

import (
	"math"
	"strings"
	"testing"

	"github.com/solidmetrics/solidmetrics/pkg/repair"
	"github.com/solidmetrics/solidmetrics/pkg/surface"
)

func TestOutputColumnsLayout(t *testing.T) {
	schema := []string{"OBJECTID", "UUID", "GEMEINDE"}
	cols := OutputColumns(schema)

	if cols[0] != "OBJECTID" || cols[1] != "UUID" || cols[2] != "GEMEINDE" {
		t.Errorf("source fields must lead the layout, got %v", cols[:3])
	}
	if cols[3] != "mesh_volume" {
		t.Errorf("mesh fields must follow the source fields, got %q", cols[3])
	}
	if cols[len(cols)-2] != "processing_status" || cols[len(cols)-1] != "processing_error" {
		t.Errorf("status pair must close the layout, got %v", cols[len(cols)-2:])
	}

	idx := -1
	for i, c := range cols {
		if c == "surf_roof_area" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatal("surf_roof_area column missing")
	}
}

func TestRowMatchesColumns(t *testing.T) {
	schema := []string{"OBJECTID", "HEIGHT_REF"}
	rec := &ProcessedRecord{
		Index: 7,
		Attrs: map[string]string{"OBJECTID": "42", "HEIGHT_REF": "DTM"},
		Volume: &repair.VolumeResult{
			Volume:        512.5,
			HasVolume:     true,
			IsWatertight:  true,
			VertexCount:   8,
			FaceCount:     12,
			RepairApplied: true,
			RepairSteps:   []string{"fill_holes: filled 1 boundary holes", "watertight after fill_holes"},
		},
		Surface: &surface.Result{
			RoofArea:      10,
			FootprintArea: 10,
			WallArea:      40,
			TotalArea:     60,
			WallPerimeter: 4,
		},
		Status: StatusSuccess,
	}

	cols := OutputColumns(schema)
	row := rec.Row(schema)
	if len(row) != len(cols) {
		t.Fatalf("row has %d cells for %d columns", len(row), len(cols))
	}

	cell := func(name string) string {
		for i, c := range cols {
			if c == name {
				return row[i]
			}
		}
		t.Fatalf("column %q not found", name)
		return ""
	}
	if cell("OBJECTID") != "42" {
		t.Errorf("attribute passthrough failed: %q", cell("OBJECTID"))
	}
	if cell("mesh_volume") != "512.5" {
		t.Errorf("mesh_volume: %q", cell("mesh_volume"))
	}
	if cell("mesh_is_watertight") != "true" {
		t.Errorf("mesh_is_watertight: %q", cell("mesh_is_watertight"))
	}
	if !strings.Contains(cell("mesh_repair_steps"), " | ") {
		t.Errorf("repair steps must join with a separator: %q", cell("mesh_repair_steps"))
	}
	if cell("surf_wall_area") != "40" {
		t.Errorf("surf_wall_area: %q", cell("surf_wall_area"))
	}
	if cell("processing_status") != StatusSuccess {
		t.Errorf("processing_status: %q", cell("processing_status"))
	}
}

func TestRowWithoutResults(t *testing.T) {
	schema := []string{"OBJECTID"}
	rec := &ProcessedRecord{
		Attrs:  map[string]string{"OBJECTID": "1"},
		Status: StatusFailed,
		Error:  "no geometry data",
	}
	row := rec.Row(schema)
	cols := OutputColumns(schema)
	if len(row) != len(cols) {
		t.Fatalf("row has %d cells for %d columns", len(row), len(cols))
	}
	// Every metric cell empty, status pair filled.
	for i := 1; i < len(row)-2; i++ {
		if row[i] != "" {
			t.Errorf("cell %q should be empty for a record without results, got %q", cols[i], row[i])
		}
	}
	if row[len(row)-2] != StatusFailed || row[len(row)-1] != "no geometry data" {
		t.Errorf("status pair wrong: %v", row[len(row)-2:])
	}
}

func TestRowRendersNaNPerimeterEmpty(t *testing.T) {
	schema := []string{}
	rec := &ProcessedRecord{
		Attrs:   map[string]string{},
		Volume:  &repair.VolumeResult{HasVolume: true, Volume: 1},
		Surface: &surface.Result{WallPerimeter: math.NaN()},
		Status:  StatusSuccess,
	}
	cols := OutputColumns(schema)
	row := rec.Row(schema)
	for i, c := range cols {
		if c == "surf_wall_perimeter" && row[i] != "" {
			t.Errorf("NaN perimeter must render empty, got %q", row[i])
		}
	}
}

func TestRowWithSurfaceError(t *testing.T) {
	schema := []string{}
	rec := &ProcessedRecord{
		Attrs:   map[string]string{},
		Surface: &surface.Result{Err: "no non-degenerate faces"},
		Status:  StatusFailed,
		Error:   "surface: no non-degenerate faces",
	}
	cols := OutputColumns(schema)
	row := rec.Row(schema)
	for i, c := range cols {
		switch c {
		case "surf_error":
			if row[i] != "no non-degenerate faces" {
				t.Errorf("surf_error: %q", row[i])
			}
		case "surf_roof_area", "surf_total_area":
			if row[i] != "" {
				t.Errorf("%s should be empty on surface error, got %q", c, row[i])
			}
		}
	}
}
