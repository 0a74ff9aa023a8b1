package repair

import (
	"fmt"
	"math"

	"github.com/solidmetrics/solidmetrics/pkg/geometry"
)

// convexHull computes the convex hull of the given points as a closed
// triangle mesh using an incremental algorithm. Fails when the points are
// fewer than four or (near) coplanar.
func convexHull(points []geometry.Vector3) (*geometry.Mesh, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("convex hull needs at least 4 points, have %d", len(points))
	}

	tet, rest, err := initialTetrahedron(points)
	if err != nil {
		return nil, err
	}

	faces := tet
	for _, p := range rest {
		faces = addHullPoint(points, faces, p)
	}

	m := &geometry.Mesh{Vertices: points, Faces: faces}
	m.RemoveUnreferenced()
	return m, nil
}

// initialTetrahedron picks four non-coplanar points and returns the four
// outward-oriented faces plus the indices of all remaining points.
func initialTetrahedron(points []geometry.Vector3) ([]geometry.Triangle, []int, error) {
	const eps = 1e-9

	i0 := 0
	i1 := -1
	for i := 1; i < len(points); i++ {
		if points[i].Sub(points[i0]).Length() > eps {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return nil, nil, fmt.Errorf("all points coincident")
	}

	dir := points[i1].Sub(points[i0])
	i2 := -1
	for i := 0; i < len(points); i++ {
		if i == i0 || i == i1 {
			continue
		}
		if dir.Cross(points[i].Sub(points[i0])).Length() > eps {
			i2 = i
			break
		}
	}
	if i2 < 0 {
		return nil, nil, fmt.Errorf("all points collinear")
	}

	n := points[i1].Sub(points[i0]).Cross(points[i2].Sub(points[i0]))
	i3 := -1
	best := eps
	for i := 0; i < len(points); i++ {
		if i == i0 || i == i1 || i == i2 {
			continue
		}
		d := math.Abs(n.Dot(points[i].Sub(points[i0])))
		if d > best {
			best = d
			i3 = i
		}
	}
	if i3 < 0 {
		return nil, nil, fmt.Errorf("all points coplanar")
	}

	// Orient so every face looks away from the opposite corner.
	if n.Dot(points[i3].Sub(points[i0])) > 0 {
		i1, i2 = i2, i1
	}
	faces := []geometry.Triangle{
		{i0, i1, i2},
		{i0, i2, i3},
		{i2, i1, i3},
		{i1, i0, i3},
	}

	var rest []int
	for i := range points {
		if i != i0 && i != i1 && i != i2 && i != i3 {
			rest = append(rest, i)
		}
	}
	return faces, rest, nil
}

// addHullPoint extends the hull with point p: faces visible from p are
// removed and the resulting horizon is re-triangulated toward p.
func addHullPoint(points []geometry.Vector3, faces []geometry.Triangle, p int) []geometry.Triangle {
	const eps = 1e-9

	visible := make([]bool, len(faces))
	any := false
	for i, f := range faces {
		a := points[f[0]]
		n := points[f[1]].Sub(a).Cross(points[f[2]].Sub(a))
		if n.Dot(points[p].Sub(a)) > eps {
			visible[i] = true
			any = true
		}
	}
	if !any {
		return faces // p is inside the current hull
	}

	// Horizon: directed edges of visible faces whose reverse belongs to a
	// hidden face (or to no face at all).
	visEdges := make(map[[2]int]bool)
	for i, f := range faces {
		if !visible[i] {
			continue
		}
		visEdges[[2]int{f[0], f[1]}] = true
		visEdges[[2]int{f[1], f[2]}] = true
		visEdges[[2]int{f[2], f[0]}] = true
	}

	var out []geometry.Triangle
	for i, f := range faces {
		if !visible[i] {
			out = append(out, f)
		}
	}
	for e := range visEdges {
		if !visEdges[[2]int{e[1], e[0]}] {
			out = append(out, geometry.Triangle{e[0], e[1], p})
		}
	}
	return out
}
