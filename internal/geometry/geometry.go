// Package geometry provides the planar longitude/latitude primitives used by the
// mesh index and the finite-element interpolation.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used for inclusive containment tests.
const Epsilon = 1e-12

// Point represents a geographic position in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// Vec converts the point into a planar vector (x = longitude, y = latitude).
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.Lon, Y: p.Lat}
}

// FromVec converts a planar vector back into a point.
func FromVec(v r2.Vec) Point {
	return Point{Lon: v.X, Lat: v.Y}
}

// Box is an axis-aligned longitude/latitude box.
type Box struct {
	Min Point
	Max Point
}

// NewBox creates a box from the minimum longitude, minimum latitude, maximum
// longitude and maximum latitude.
func NewBox(lonMin, latMin, lonMax, latMax float64) Box {
	return Box{
		Min: Point{Lon: math.Min(lonMin, lonMax), Lat: math.Min(latMin, latMax)},
		Max: Point{Lon: math.Max(lonMin, lonMax), Lat: math.Max(latMin, latMax)},
	}
}

// R2 converts the box into a gonum box.
func (b Box) R2() r2.Box {
	return r2.Box{Min: b.Min.Vec(), Max: b.Max.Vec()}
}

// Contains reports whether p lies inside the box, borders included.
func (b Box) Contains(p Point) bool {
	return p.Lon >= b.Min.Lon && p.Lon <= b.Max.Lon &&
		p.Lat >= b.Min.Lat && p.Lat <= b.Max.Lat
}

// Intersects reports whether the two boxes overlap, borders included.
func (b Box) Intersects(o Box) bool {
	return b.Min.Lon <= o.Max.Lon && o.Min.Lon <= b.Max.Lon &&
		b.Min.Lat <= o.Max.Lat && o.Min.Lat <= b.Max.Lat
}

// Triangle is a mesh element defined by three vertices in counter-clockwise
// or clockwise order.
type Triangle struct {
	A Point
	B Point
	C Point
}

// Vertex returns the vertex with ordinal 0, 1 or 2.
func (t Triangle) Vertex(i int) Point {
	switch i {
	case 0:
		return t.A
	case 1:
		return t.B
	default:
		return t.C
	}
}

// IsVertex returns the ordinal of the vertex equal to p, or -1.
func (t Triangle) IsVertex(p Point) int {
	switch p {
	case t.A:
		return 0
	case t.B:
		return 1
	case t.C:
		return 2
	}
	return -1
}

// Bounds returns the bounding box of the triangle.
func (t Triangle) Bounds() Box {
	return Box{
		Min: Point{
			Lon: math.Min(t.A.Lon, math.Min(t.B.Lon, t.C.Lon)),
			Lat: math.Min(t.A.Lat, math.Min(t.B.Lat, t.C.Lat)),
		},
		Max: Point{
			Lon: math.Max(t.A.Lon, math.Max(t.B.Lon, t.C.Lon)),
			Lat: math.Max(t.A.Lat, math.Max(t.B.Lat, t.C.Lat)),
		},
	}
}

// Area returns the signed area of the triangle.
func (t Triangle) Area() float64 {
	ab := r2.Sub(t.B.Vec(), t.A.Vec())
	ac := r2.Sub(t.C.Vec(), t.A.Vec())
	return 0.5 * r2.Cross(ab, ac)
}

// ReferenceRightAngled maps p into the reference right-angled triangle
// (0,0), (1,0), (0,1), so that p = A + x(B-A) + y(C-A).
func (t Triangle) ReferenceRightAngled(p Point) (x, y float64) {
	ab := r2.Sub(t.B.Vec(), t.A.Vec())
	ac := r2.Sub(t.C.Vec(), t.A.Vec())
	ap := r2.Sub(p.Vec(), t.A.Vec())
	det := r2.Cross(ab, ac)
	if det == 0 {
		return math.NaN(), math.NaN()
	}
	x = r2.Cross(ap, ac) / det
	y = r2.Cross(ab, ap) / det
	return x, y
}

// FromReference maps reference coordinates back to the plane of the triangle.
func (t Triangle) FromReference(x, y float64) Point {
	ab := r2.Sub(t.B.Vec(), t.A.Vec())
	ac := r2.Sub(t.C.Vec(), t.A.Vec())
	return FromVec(r2.Add(t.A.Vec(), r2.Add(r2.Scale(x, ab), r2.Scale(y, ac))))
}

// CoveredBy reports whether p lies inside the triangle, edges and vertices
// included.
func (t Triangle) CoveredBy(p Point) bool {
	x, y := t.ReferenceRightAngled(p)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return x >= -Epsilon && y >= -Epsilon && x+y <= 1+Epsilon
}

// ClosestPoint returns the point of the triangle (interior included) closest to
// p in the longitude/latitude plane.
func (t Triangle) ClosestPoint(p Point) Point {
	if t.CoveredBy(p) {
		return p
	}
	best := closestOnSegment(t.A, t.B, p)
	bestDist := planarDistance2(best, p)
	for _, q := range []Point{closestOnSegment(t.B, t.C, p), closestOnSegment(t.C, t.A, p)} {
		if d := planarDistance2(q, p); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

func closestOnSegment(a, b, p Point) Point {
	ab := r2.Sub(b.Vec(), a.Vec())
	den := r2.Dot(ab, ab)
	if den == 0 {
		return a
	}
	u := r2.Dot(r2.Sub(p.Vec(), a.Vec()), ab) / den
	switch {
	case u <= 0:
		return a
	case u >= 1:
		return b
	}
	return FromVec(r2.Add(a.Vec(), r2.Scale(u, ab)))
}

func planarDistance2(a, b Point) float64 {
	d := r2.Sub(a.Vec(), b.Vec())
	return r2.Dot(d, d)
}
