// Package geometry provides the in-memory triangle mesh model for building
// solids: construction from multipatch rings, per-face normals and areas,
// elevation bounds, and the edge-manifold queries the repair ladder needs.
package geometry

import (
	"math"
	"sort"
)

// Triangle references three vertices by index, counter-clockwise as seen
// from outside the solid.
type Triangle [3]int

// Mesh is a triangle mesh for one building solid. Vertices are deduplicated
// at construction; every triangle index is valid into Vertices.
type Mesh struct {
	Vertices []Vector3
	Faces    []Triangle
}

// NewMeshFromRings builds a mesh from a multipatch payload: each ring is a
// closed polygon boundary (the closing duplicate point may be present or
// absent). Rings are fan-triangulated and exact-duplicate vertices merged.
// Rings with fewer than three distinct points contribute nothing.
func NewMeshFromRings(rings [][]Vector3) *Mesh {
	m := &Mesh{}
	index := make(map[Vector3]int)

	addVertex := func(p Vector3) int {
		if i, ok := index[p]; ok {
			return i
		}
		i := len(m.Vertices)
		m.Vertices = append(m.Vertices, p)
		index[p] = i
		return i
	}

	for _, ring := range rings {
		pts := ring
		if n := len(pts); n > 1 && pts[0] == pts[n-1] {
			pts = pts[:n-1]
		}
		if len(pts) < 3 {
			continue
		}
		idx := make([]int, len(pts))
		for i, p := range pts {
			idx[i] = addVertex(p)
		}
		for i := 1; i < len(idx)-1; i++ {
			m.Faces = append(m.Faces, Triangle{idx[0], idx[i], idx[i+1]})
		}
	}
	return m
}

// IsEmpty reports whether the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]Vector3, len(m.Vertices)),
		Faces:    make([]Triangle, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	return c
}

// FaceNormal returns the unit normal of face i, oriented by the winding of
// the triangle. Degenerate faces yield the zero vector.
func (m *Mesh) FaceNormal(i int) Vector3 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a)).Normalized()
}

// FaceArea returns the area of face i.
func (m *Mesh) FaceArea(i int) float64 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a)).Length() / 2
}

// FaceCentroid returns the centroid of face i.
func (m *Mesh) FaceCentroid(i int) Vector3 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return a.Add(b).Add(c).Scale(1.0 / 3.0)
}

// SurfaceArea returns the summed area of all faces.
func (m *Mesh) SurfaceArea() float64 {
	total := 0.0
	for i := range m.Faces {
		total += m.FaceArea(i)
	}
	return total
}

// ZBounds returns the minimum and maximum vertex elevation. A mesh without
// vertices reports (0, 0).
func (m *Mesh) ZBounds() (min, max float64) {
	if len(m.Vertices) == 0 {
		return 0, 0
	}
	min, max = m.Vertices[0].Z, m.Vertices[0].Z
	for _, v := range m.Vertices[1:] {
		if v.Z < min {
			min = v.Z
		}
		if v.Z > max {
			max = v.Z
		}
	}
	return min, max
}

// SignedVolume integrates the volume enclosed by the surface using the
// divergence theorem. The sign depends on face orientation: negative means
// the surface is inside-out. Only meaningful for (near) closed meshes.
func (m *Mesh) SignedVolume() float64 {
	vol := 0.0
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

// edgeKey is an undirected edge between two vertex indices, low index first.
type edgeKey [2]int

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// edgeUse counts how many faces reference each undirected edge.
func (m *Mesh) edgeUse() map[edgeKey]int {
	use := make(map[edgeKey]int, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		use[newEdgeKey(f[0], f[1])]++
		use[newEdgeKey(f[1], f[2])]++
		use[newEdgeKey(f[2], f[0])]++
	}
	return use
}

// IsWatertight reports whether the surface is closed: every undirected edge
// is shared by exactly two faces. An empty mesh is not watertight.
func (m *Mesh) IsWatertight() bool {
	if m.IsEmpty() {
		return false
	}
	for _, n := range m.edgeUse() {
		if n != 2 {
			return false
		}
	}
	return true
}

// BoundaryEdges returns the directed edges used by exactly one face, in the
// direction the face winds them. These are the rims of holes in the surface.
func (m *Mesh) BoundaryEdges() [][2]int {
	use := m.edgeUse()
	var edges [][2]int
	for _, f := range m.Faces {
		for _, e := range [][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}} {
			if use[newEdgeKey(e[0], e[1])] == 1 {
				edges = append(edges, e)
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// BoundaryLoops chains boundary edges into closed loops of vertex indices.
// Edges that cannot be chained into a closed loop are dropped.
func (m *Mesh) BoundaryLoops() [][]int {
	edges := m.BoundaryEdges()
	next := make(map[int]int, len(edges))
	for _, e := range edges {
		// A vertex on more than one hole rim keeps only one outgoing edge;
		// remaining rims are picked up by later repair passes.
		if _, ok := next[e[0]]; !ok {
			next[e[0]] = e[1]
		}
	}

	var loops [][]int
	seen := make(map[int]bool)
	for _, e := range edges {
		start := e[0]
		if seen[start] {
			continue
		}
		loop := []int{start}
		seen[start] = true
		cur, ok := next[start]
		for ok && cur != start && len(loop) <= len(edges) {
			loop = append(loop, cur)
			seen[cur] = true
			cur, ok = next[cur]
		}
		if ok && cur == start && len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}

// RemoveUnreferenced drops vertices no face points at and remaps indices.
func (m *Mesh) RemoveUnreferenced() {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		used[f[0]], used[f[1]], used[f[2]] = true, true, true
	}
	remap := make([]int, len(m.Vertices))
	var kept []Vector3
	for i, v := range m.Vertices {
		if used[i] {
			remap[i] = len(kept)
			kept = append(kept, v)
		}
	}
	for i, f := range m.Faces {
		m.Faces[i] = Triangle{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	m.Vertices = kept
}

// IsDegenerateFace reports whether face i has a repeated vertex or an area
// below minArea.
func (m *Mesh) IsDegenerateFace(i int, minArea float64) bool {
	f := m.Faces[i]
	if f[0] == f[1] || f[1] == f[2] || f[2] == f[0] {
		return true
	}
	a := m.FaceArea(i)
	return a < minArea || math.IsNaN(a)
}
