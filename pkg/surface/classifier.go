// Package surface classifies the faces of a building mesh into roof,
// footprint, wall, and sloped surfaces and derives the aggregate metrics
// reported per building.
package surface

import (
	"math"

	"github.com/solidmetrics/solidmetrics/pkg/geometry"
)

// Orientation of a single face relative to the vertical axis.
type Orientation int

const (
	OrientationHorizontal Orientation = iota
	OrientationVertical
	OrientationSloped
)

// Result carries the surface metrics for one building. Err is set on
// geometric failure (empty mesh, no usable faces); numeric fields are then
// left at zero. WallPerimeter is NaN when the building height is zero.
type Result struct {
	RoofArea      float64
	FootprintArea float64
	WallArea      float64
	SlopedArea    float64
	TotalArea     float64

	BuildingHeight float64
	WallPerimeter  float64
	RoofComplexity float64
	MinElevation   float64
	MaxElevation   float64

	HorizontalFaces int
	VerticalFaces   int
	SlopedFaces     int

	Err string
}

// Classifier partitions faces by orientation and splits horizontal faces
// into footprint and roof by elevation.
type Classifier struct {
	// AngleToleranceDeg is the cone half-angle around horizontal and
	// vertical within which a face is considered axis-aligned.
	AngleToleranceDeg float64

	// FootprintBand is the fraction of the height range, measured from the
	// bottom, in which a horizontal face counts as footprint.
	FootprintBand float64

	// MinFaceArea excludes degenerate faces from every sum and count.
	MinFaceArea float64
}

// NewClassifier returns a classifier with the standard thresholds: 10°
// orientation tolerance and a footprint band covering the lowest 10% of
// the height range.
func NewClassifier() *Classifier {
	return &Classifier{
		AngleToleranceDeg: 10,
		FootprintBand:     0.1,
		MinFaceArea:       1e-10,
	}
}

// ClassifyNormal buckets a unit normal by the angle between it and the
// vertical axis: within tolerance of 0° or 180° is horizontal, within
// tolerance of 90° is vertical, anything else is sloped.
func (c *Classifier) ClassifyNormal(n geometry.Vector3) Orientation {
	tol := c.AngleToleranceDeg * math.Pi / 180
	absZ := math.Abs(n.Z)
	switch {
	case absZ > math.Cos(tol):
		return OrientationHorizontal
	case absZ < math.Sin(tol):
		return OrientationVertical
	default:
		return OrientationSloped
	}
}

// Analyze derives the surface metrics of m. When the volume engine repaired
// the mesh, m must be the repaired surface, so areas reflect the geometry
// the volume was computed on.
func (c *Classifier) Analyze(m *geometry.Mesh) Result {
	var res Result
	if m == nil || m.IsEmpty() {
		res.Err = "no vertices or faces provided"
		return res
	}

	minZ, maxZ := m.ZBounds()
	height := maxZ - minZ

	// Horizontal faces are split by elevation only after the full height
	// range is known, so collect them first.
	type horizFace struct {
		area float64
		z    float64
	}
	var horizontal []horizFace

	for i := range m.Faces {
		area := m.FaceArea(i)
		if area < c.MinFaceArea {
			continue
		}
		switch c.ClassifyNormal(m.FaceNormal(i)) {
		case OrientationHorizontal:
			horizontal = append(horizontal, horizFace{area: area, z: m.FaceCentroid(i).Z})
		case OrientationVertical:
			res.WallArea += area
			res.VerticalFaces++
		default:
			res.SlopedArea += area
			res.SlopedFaces++
		}
	}
	res.HorizontalFaces = len(horizontal)

	if res.HorizontalFaces == 0 && res.VerticalFaces == 0 && res.SlopedFaces == 0 {
		res.Err = "no non-degenerate faces"
		return Result{Err: res.Err}
	}

	threshold := minZ + c.FootprintBand*height
	if height <= 0.01 {
		// Degenerate height range: treat a thin absolute band as ground.
		threshold = minZ + c.FootprintBand
	}
	for _, f := range horizontal {
		if f.z <= threshold {
			res.FootprintArea += f.area
		} else {
			res.RoofArea += f.area
		}
	}

	res.TotalArea = res.RoofArea + res.FootprintArea + res.WallArea + res.SlopedArea
	res.MinElevation = minZ
	res.MaxElevation = maxZ
	res.BuildingHeight = height

	// Walls are treated as a uniform-height band, so the perimeter is
	// estimated from wall area, not traced.
	if height > 0 {
		res.WallPerimeter = res.WallArea / height
	} else {
		res.WallPerimeter = math.NaN()
	}

	// Flat single-plane roofs score 0; the score approaches 1 as the roof
	// surface shifts from horizontal planes to sloped facets.
	if upper := res.RoofArea + res.SlopedArea; upper > 0 {
		res.RoofComplexity = res.SlopedArea / upper
	}

	return res
}
