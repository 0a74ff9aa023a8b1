// Package model defines the records flowing through the pipeline and the
// column layout of the merged output.
package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/solidmetrics/solidmetrics/pkg/geometry"
	"github.com/solidmetrics/solidmetrics/pkg/repair"
	"github.com/solidmetrics/solidmetrics/pkg/surface"
)

// Processing status of one record.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RawBuildingRecord is one building as read from the source layer: its
// attribute values keyed by field name and the faceted geometry payload as
// polygon rings. Immutable once read.
type RawBuildingRecord struct {
	// Index is the record's position in the source stream, starting at 0.
	Index int

	Attrs map[string]string

	// Rings holds the multipatch faces; each ring is one closed polygon
	// boundary in 3D.
	Rings [][]geometry.Vector3
}

// ProcessedRecord is the analysis outcome for one building: the original
// attributes plus the volume and surface results. A nil sub-result means
// that analysis never ran for this record.
type ProcessedRecord struct {
	Index int
	Attrs map[string]string

	Volume  *repair.VolumeResult
	Surface *surface.Result

	Status string
	Error  string
}

// Volume result columns, prefixed mesh_.
var meshColumns = []string{
	"mesh_volume",
	"mesh_is_watertight",
	"mesh_vertex_count",
	"mesh_face_count",
	"mesh_repair_applied",
	"mesh_repair_steps",
	"mesh_error",
}

// Surface result columns, prefixed surf_.
var surfColumns = []string{
	"surf_roof_area",
	"surf_footprint_area",
	"surf_wall_area",
	"surf_sloped_area",
	"surf_total_area",
	"surf_building_height",
	"surf_wall_perimeter",
	"surf_roof_complexity",
	"surf_min_elevation",
	"surf_max_elevation",
	"surf_horizontal_faces",
	"surf_vertical_faces",
	"surf_sloped_faces",
	"surf_error",
}

// OutputColumns returns the full column layout for a given source schema:
// the source fields unchanged, then mesh_*, surf_*, and the processing
// status pair.
func OutputColumns(schema []string) []string {
	cols := make([]string, 0, len(schema)+len(meshColumns)+len(surfColumns)+2)
	cols = append(cols, schema...)
	cols = append(cols, meshColumns...)
	cols = append(cols, surfColumns...)
	cols = append(cols, "processing_status", "processing_error")
	return cols
}

// Row renders the record as one output row matching OutputColumns(schema).
// Absent values render as empty cells.
func (r *ProcessedRecord) Row(schema []string) []string {
	row := make([]string, 0, len(schema)+len(meshColumns)+len(surfColumns)+2)
	for _, field := range schema {
		row = append(row, r.Attrs[field])
	}
	row = append(row, r.volumeCells()...)
	row = append(row, r.surfaceCells()...)
	row = append(row, r.Status, r.Error)
	return row
}

func (r *ProcessedRecord) volumeCells() []string {
	if r.Volume == nil {
		return make([]string, len(meshColumns))
	}
	v := r.Volume
	volume := ""
	if v.HasVolume {
		volume = formatFloat(v.Volume)
	}
	return []string{
		volume,
		strconv.FormatBool(v.IsWatertight),
		strconv.Itoa(v.VertexCount),
		strconv.Itoa(v.FaceCount),
		strconv.FormatBool(v.RepairApplied),
		strings.Join(v.RepairSteps, " | "),
		v.Err,
	}
}

func (r *ProcessedRecord) surfaceCells() []string {
	if r.Surface == nil {
		return make([]string, len(surfColumns))
	}
	s := r.Surface
	if s.Err != "" {
		cells := make([]string, len(surfColumns))
		cells[len(cells)-1] = s.Err
		return cells
	}
	return []string{
		formatFloat(s.RoofArea),
		formatFloat(s.FootprintArea),
		formatFloat(s.WallArea),
		formatFloat(s.SlopedArea),
		formatFloat(s.TotalArea),
		formatFloat(s.BuildingHeight),
		formatFloat(s.WallPerimeter),
		formatFloat(s.RoofComplexity),
		formatFloat(s.MinElevation),
		formatFloat(s.MaxElevation),
		strconv.Itoa(s.HorizontalFaces),
		strconv.Itoa(s.VerticalFaces),
		strconv.Itoa(s.SlopedFaces),
		"",
	}
}

// formatFloat renders a float for delimited output; NaN renders as an
// empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
