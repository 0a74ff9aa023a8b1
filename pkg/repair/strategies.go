package repair

import (
	"fmt"
	"math"

	"github.com/solidmetrics/solidmetrics/pkg/geometry"
)

// Strategy is one corrective action in the repair ladder. Apply never
// mutates the input mesh; it returns the repaired mesh (which may share no
// storage with the input) and a note describing what was done. A nil note
// mesh is never returned: when the strategy has nothing to fix it returns
// the input unchanged.
type Strategy interface {
	Name() string
	Apply(m *geometry.Mesh) (*geometry.Mesh, string)
}

// FillHoles closes small boundary gaps by fan-triangulating each boundary
// loop of at most MaxEdges edges.
type FillHoles struct {
	// MaxEdges bounds the loop size considered a fillable gap.
	MaxEdges int
}

func (s FillHoles) Name() string { return "fill_holes" }

func (s FillHoles) Apply(m *geometry.Mesh) (*geometry.Mesh, string) {
	maxEdges := s.MaxEdges
	if maxEdges <= 0 {
		maxEdges = 64
	}
	loops := m.BoundaryLoops()
	if len(loops) == 0 {
		return m, "no boundary gaps found"
	}
	out := m.Clone()
	filled := 0
	for _, loop := range loops {
		if len(loop) > maxEdges {
			continue
		}
		// Boundary edges run with the winding of the existing faces, so the
		// patch winds the loop in reverse to face outward.
		for i := 1; i < len(loop)-1; i++ {
			out.Faces = append(out.Faces, geometry.Triangle{loop[0], loop[i+1], loop[i]})
		}
		filled++
	}
	if filled == 0 {
		return m, fmt.Sprintf("skipped %d boundary gaps larger than %d edges", len(loops), maxEdges)
	}
	return out, fmt.Sprintf("filled %d boundary holes", filled)
}

// MergeVertices collapses vertices that lie within Epsilon of each other on
// a quantized grid and drops faces that collapse with them.
type MergeVertices struct {
	Epsilon float64
}

func (s MergeVertices) Name() string { return "merge_vertices" }

func (s MergeVertices) Apply(m *geometry.Mesh) (*geometry.Mesh, string) {
	eps := s.Epsilon
	if eps <= 0 {
		eps = 1e-5
	}
	type key [3]int64
	quantize := func(v geometry.Vector3) key {
		return key{
			int64(math.Round(v.X / eps)),
			int64(math.Round(v.Y / eps)),
			int64(math.Round(v.Z / eps)),
		}
	}

	index := make(map[key]int)
	remap := make([]int, len(m.Vertices))
	var verts []geometry.Vector3
	for i, v := range m.Vertices {
		k := quantize(v)
		if j, ok := index[k]; ok {
			remap[i] = j
			continue
		}
		index[k] = len(verts)
		remap[i] = len(verts)
		verts = append(verts, v)
	}

	merged := len(m.Vertices) - len(verts)
	if merged == 0 {
		return m, "no duplicate vertices found"
	}

	out := &geometry.Mesh{Vertices: verts}
	for _, f := range m.Faces {
		t := geometry.Triangle{remap[f[0]], remap[f[1]], remap[f[2]]}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			continue
		}
		out.Faces = append(out.Faces, t)
	}
	return out, fmt.Sprintf("merged %d duplicate vertices", merged)
}

// DropDegenerateFaces removes faces with repeated vertices or area below
// MinArea, then prunes unreferenced vertices.
type DropDegenerateFaces struct {
	MinArea float64
}

func (s DropDegenerateFaces) Name() string { return "drop_degenerate_faces" }

func (s DropDegenerateFaces) Apply(m *geometry.Mesh) (*geometry.Mesh, string) {
	minArea := s.MinArea
	if minArea <= 0 {
		minArea = 1e-10
	}
	out := &geometry.Mesh{Vertices: append([]geometry.Vector3(nil), m.Vertices...)}
	for i, f := range m.Faces {
		if m.IsDegenerateFace(i, minArea) {
			continue
		}
		out.Faces = append(out.Faces, f)
	}
	removed := len(m.Faces) - len(out.Faces)
	if removed == 0 {
		return m, "no degenerate faces found"
	}
	out.RemoveUnreferenced()
	return out, fmt.Sprintf("removed %d degenerate faces", removed)
}

// ConvexHullFallback replaces the surface with the convex hull of its
// vertices. This is the last rung of the ladder: it always yields a closed
// solid when the vertices span three dimensions, at the cost of bridging
// concavities.
type ConvexHullFallback struct{}

func (s ConvexHullFallback) Name() string { return "convex_hull" }

func (s ConvexHullFallback) Apply(m *geometry.Mesh) (*geometry.Mesh, string) {
	hull, err := convexHull(m.Vertices)
	if err != nil {
		return m, fmt.Sprintf("convex hull failed: %v", err)
	}
	return hull, "replaced surface with convex hull approximation"
}
