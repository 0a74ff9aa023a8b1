package geometry

import (
	"math"
	"testing"
)

// cubeRings returns the six quad faces of an axis-aligned cube, wound
// counter-clockwise as seen from outside.
func cubeRings(size float64) [][]Vector3 {
	s := size
	return [][]Vector3{
		{{0, 0, 0}, {0, s, 0}, {s, s, 0}, {s, 0, 0}}, // bottom, normal -z
		{{0, 0, s}, {s, 0, s}, {s, s, s}, {0, s, s}}, // top, normal +z
		{{0, 0, 0}, {s, 0, 0}, {s, 0, s}, {0, 0, s}}, // front, normal -y
		{{0, s, 0}, {0, s, s}, {s, s, s}, {s, s, 0}}, // back, normal +y
		{{0, 0, 0}, {0, 0, s}, {0, s, s}, {0, s, 0}}, // left, normal -x
		{{s, 0, 0}, {s, s, 0}, {s, s, s}, {s, 0, s}}, // right, normal +x
	}
}

func TestNewMeshFromRingsDeduplicatesVertices(t *testing.T) {
	m := NewMeshFromRings(cubeRings(1))

	if got := m.VertexCount(); got != 8 {
		t.Errorf("expected 8 deduplicated vertices, got %d", got)
	}
	if got := m.FaceCount(); got != 12 {
		t.Errorf("expected 12 triangles from 6 quads, got %d", got)
	}
	for _, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= m.VertexCount() {
				t.Fatalf("face index %d out of range", idx)
			}
		}
	}
}

func TestNewMeshFromRingsSkipsShortAndClosedRings(t *testing.T) {
	rings := [][]Vector3{
		{{0, 0, 0}, {1, 0, 0}},                         // too short
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}},   // closing point repeated
		{},
	}
	m := NewMeshFromRings(rings)
	if got := m.FaceCount(); got != 1 {
		t.Errorf("expected 1 face from the closed triangle ring, got %d", got)
	}
}

func TestFaceNormalAndArea(t *testing.T) {
	m := NewMeshFromRings([][]Vector3{
		{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}},
	})
	if got := m.FaceCount(); got != 2 {
		t.Fatalf("expected 2 triangles, got %d", got)
	}
	total := m.FaceArea(0) + m.FaceArea(1)
	if math.Abs(total-4) > 1e-9 {
		t.Errorf("expected square area 4, got %g", total)
	}
	n := m.FaceNormal(0)
	if math.Abs(n.Z-1) > 1e-9 {
		t.Errorf("expected +z normal, got %+v", n)
	}
}

func TestIsWatertight(t *testing.T) {
	closed := NewMeshFromRings(cubeRings(1))
	if !closed.IsWatertight() {
		t.Error("closed cube should be watertight")
	}

	open := NewMeshFromRings(cubeRings(1)[:5]) // top face removed
	if open.IsWatertight() {
		t.Error("cube with a missing face should not be watertight")
	}

	empty := &Mesh{}
	if empty.IsWatertight() {
		t.Error("empty mesh should not be watertight")
	}
}

func TestSignedVolume(t *testing.T) {
	m := NewMeshFromRings(cubeRings(2))
	if got := m.SignedVolume(); math.Abs(got-8) > 1e-9 {
		t.Errorf("expected volume 8, got %g", got)
	}

	// Reversing every ring turns the surface inside out.
	rings := cubeRings(2)
	for _, ring := range rings {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	inv := NewMeshFromRings(rings)
	if got := inv.SignedVolume(); math.Abs(got+8) > 1e-9 {
		t.Errorf("expected volume -8 for inside-out cube, got %g", got)
	}
}

func TestBoundaryLoops(t *testing.T) {
	open := NewMeshFromRings(cubeRings(1)[:5])
	loops := open.BoundaryLoops()
	if len(loops) != 1 {
		t.Fatalf("expected 1 boundary loop, got %d", len(loops))
	}
	if len(loops[0]) != 4 {
		t.Errorf("expected a 4-vertex rim, got %d vertices", len(loops[0]))
	}

	closed := NewMeshFromRings(cubeRings(1))
	if loops := closed.BoundaryLoops(); len(loops) != 0 {
		t.Errorf("closed cube should have no boundary loops, got %d", len(loops))
	}
}

func TestZBounds(t *testing.T) {
	m := NewMeshFromRings(cubeRings(3))
	min, max := m.ZBounds()
	if min != 0 || max != 3 {
		t.Errorf("expected bounds [0,3], got [%g,%g]", min, max)
	}

	empty := &Mesh{}
	if min, max := empty.ZBounds(); min != 0 || max != 0 {
		t.Errorf("empty mesh bounds should be zero, got [%g,%g]", min, max)
	}
}

func TestRemoveUnreferenced(t *testing.T) {
	m := NewMeshFromRings([][]Vector3{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	})
	m.Vertices = append(m.Vertices, Vector3{9, 9, 9})
	m.RemoveUnreferenced()
	if got := m.VertexCount(); got != 3 {
		t.Errorf("expected orphan vertex removed, have %d vertices", got)
	}
	if got := m.FaceArea(0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("face area changed by remap: %g", got)
	}
}

func TestIsDegenerateFace(t *testing.T) {
	m := &Mesh{
		Vertices: []Vector3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {1, 1, 0}},
		Faces: []Triangle{
			{0, 1, 2}, // collinear
			{0, 1, 3}, // proper
			{0, 0, 1}, // repeated index
		},
	}
	if !m.IsDegenerateFace(0, 1e-10) {
		t.Error("collinear face should be degenerate")
	}
	if m.IsDegenerateFace(1, 1e-10) {
		t.Error("proper face flagged degenerate")
	}
	if !m.IsDegenerateFace(2, 1e-10) {
		t.Error("face with repeated index should be degenerate")
	}
}
