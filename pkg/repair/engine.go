// Package repair wraps mesh repair and volume computation behind a ladder
// of injectable strategies. The engine tries the cheapest fix first and
// records every attempted step, so a row in the output always tells what
// was done to its geometry.
package repair

import (
	"fmt"

	"github.com/solidmetrics/solidmetrics/pkg/geometry"
)

// VolumeResult reports the outcome of volume computation for one solid.
// Err is set exactly when no volume could be computed; a volume may be
// present even when the surface stayed only approximately watertight.
type VolumeResult struct {
	Volume        float64
	HasVolume     bool
	IsWatertight  bool
	VertexCount   int
	FaceCount     int
	RepairApplied bool
	RepairSteps   []string
	Err           string
}

// Engine computes building volumes, repairing surfaces as needed.
type Engine struct {
	ladder []Strategy
}

// DefaultLadder returns the standard repair sequence: fill small boundary
// gaps, merge near-duplicate vertices, drop degenerate faces, and as a last
// resort approximate with the convex hull.
func DefaultLadder() []Strategy {
	return []Strategy{
		FillHoles{MaxEdges: 64},
		MergeVertices{Epsilon: 1e-5},
		DropDegenerateFaces{MinArea: 1e-10},
		ConvexHullFallback{},
	}
}

// NewEngine creates an engine with the given ladder, or the default ladder
// when none is given.
func NewEngine(ladder ...Strategy) *Engine {
	if len(ladder) == 0 {
		ladder = DefaultLadder()
	}
	return &Engine{ladder: ladder}
}

// ComputeVolume computes the enclosed volume of m, applying the repair
// ladder when the surface is not closed. The caller's mesh is never
// mutated. The returned mesh is the geometry the result describes — the
// repaired surface when repair ran — and is what any further surface
// analysis must consume.
func (e *Engine) ComputeVolume(m *geometry.Mesh) (VolumeResult, *geometry.Mesh) {
	res := VolumeResult{}
	if m == nil || m.IsEmpty() {
		res.Err = "no vertices or faces provided"
		return res, m
	}

	cur := m
	if cur.IsWatertight() {
		res.setVolume(cur)
		res.finish(cur)
		return res, cur
	}

	res.RepairApplied = true
	for _, s := range e.ladder {
		repaired, note := s.Apply(cur)
		res.RepairSteps = append(res.RepairSteps, fmt.Sprintf("%s: %s", s.Name(), note))
		cur = repaired
		if cur.IsWatertight() {
			res.RepairSteps = append(res.RepairSteps, "watertight after "+s.Name())
			break
		}
	}

	switch {
	case cur.IsWatertight():
		res.setVolume(cur)
	case !cur.IsEmpty():
		// A nearly closed surface still integrates to a usable volume.
		if v := cur.SignedVolume(); v != 0 {
			res.Volume = abs(v)
			res.HasVolume = true
			res.RepairSteps = append(res.RepairSteps,
				fmt.Sprintf("calculated volume %.2f despite non-watertight surface", res.Volume))
		} else {
			res.Err = "mesh could not be repaired to a closed solid"
		}
	default:
		res.Err = "mesh empty after repair"
	}
	res.finish(cur)
	return res, cur
}

// setVolume records the enclosed volume of a watertight mesh, flipping
// inside-out surfaces to a positive volume.
func (r *VolumeResult) setVolume(m *geometry.Mesh) {
	v := m.SignedVolume()
	if v < 0 {
		v = -v
		r.RepairSteps = append(r.RepairSteps, "fixed inside-out orientation")
	}
	r.Volume = v
	r.HasVolume = true
	r.IsWatertight = true
}

func (r *VolumeResult) finish(m *geometry.Mesh) {
	if m != nil {
		r.VertexCount = m.VertexCount()
		r.FaceCount = m.FaceCount()
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
