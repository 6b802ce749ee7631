// Package mesh provides a spatial index over an unstructured triangular mesh.
//
// The index answers two kinds of queries: which triangle holds (or is nearest
// to) a point, and which triangles intersect a bounding box. It is immutable
// once built and safe for concurrent use.
package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/spatial/kdtree"

	"go.ngs.io/tides-lgp/internal/geometry"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371008.8

// nearestVertices is the number of vertices examined when looking for the
// triangle nearest to a point outside the mesh.
const nearestVertices = 16

// ErrInvalidMesh is returned when the mesh definition is inconsistent.
var ErrInvalidMesh = errors.New("invalid mesh")

// SelectedTriangle is the result of a triangle search.
type SelectedTriangle struct {
	// Index of the triangle in the mesh, or -1 when no triangle was found.
	Index int
	// Triangle geometry. Zero when Index is -1.
	Triangle geometry.Triangle
	// Point used for interpolation. For an extrapolated search it is the query
	// point projected onto the nearest triangle.
	Point geometry.Point
	// Inside is true when the query point lies inside the mesh.
	Inside bool
}

// None returns a selection without triangle for point p.
func None(p geometry.Point) SelectedTriangle {
	return SelectedTriangle{Index: -1, Point: p}
}

// Index is a spatial index over a triangular mesh.
type Index struct {
	vertices  []geometry.Point
	triangles [][3]int32

	bounds   geometry.Box
	cellSize float64
	nx, ny   int
	cells    map[int][]int32
	incident [][]int32
	tree     *kdtree.Tree
}

// NewIndex builds an index from vertex coordinates and triangles given as
// three vertex indices each.
func NewIndex(vertices []geometry.Point, triangles [][3]int32) (*Index, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("%w: at least 3 vertices required, got %d", ErrInvalidMesh, len(vertices))
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: no triangles", ErrInvalidMesh)
	}
	for i, v := range vertices {
		if math.IsNaN(v.Lon) || math.IsNaN(v.Lat) || math.IsInf(v.Lon, 0) || math.IsInf(v.Lat, 0) {
			return nil, fmt.Errorf("%w: vertex %d has non-finite coordinates", ErrInvalidMesh, i)
		}
		if v.Lon < -180 || v.Lon > 360 || v.Lat < -90 || v.Lat > 90 {
			return nil, fmt.Errorf("%w: vertex %d (%g, %g) out of range", ErrInvalidMesh, i, v.Lon, v.Lat)
		}
	}

	idx := &Index{
		vertices:  vertices,
		triangles: triangles,
		incident:  make([][]int32, len(vertices)),
	}
	for i, tri := range triangles {
		for _, v := range tri {
			if v < 0 || int(v) >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d out of range [0, %d)",
					ErrInvalidMesh, i, v, len(vertices))
			}
			idx.incident[v] = append(idx.incident[v], int32(i))
		}
		if idx.Triangle(i).Area() == 0 {
			return nil, fmt.Errorf("%w: triangle %d is degenerate", ErrInvalidMesh, i)
		}
	}

	idx.buildCells()
	idx.buildTree()
	return idx, nil
}

// TriangleCount returns the number of triangles in the mesh.
func (idx *Index) TriangleCount() int {
	return len(idx.triangles)
}

// VertexCount returns the number of vertices in the mesh.
func (idx *Index) VertexCount() int {
	return len(idx.vertices)
}

// Bounds returns the bounding box of the mesh.
func (idx *Index) Bounds() geometry.Box {
	return idx.bounds
}

// Triangle returns the geometry of triangle i.
func (idx *Index) Triangle(i int) geometry.Triangle {
	t := idx.triangles[i]
	return geometry.Triangle{
		A: idx.vertices[t[0]],
		B: idx.vertices[t[1]],
		C: idx.vertices[t[2]],
	}
}

// Search locates the triangle containing p. If p lies outside the mesh and
// maxDistance is positive, the nearest triangle within maxDistance meters is
// returned with the point projected onto it. A zero maxDistance disables
// extrapolation.
func (idx *Index) Search(p geometry.Point, maxDistance float64) SelectedTriangle {
	if idx.bounds.Contains(p) {
		for _, i := range idx.cells[idx.cellOf(p)] {
			tri := idx.Triangle(int(i))
			if tri.CoveredBy(p) {
				return SelectedTriangle{Index: int(i), Triangle: tri, Point: p, Inside: true}
			}
		}
	}
	if maxDistance <= 0 {
		return None(p)
	}

	keeper := kdtree.NewNKeeper(nearestVertices)
	idx.tree.NearestSet(keeper, vertexPoint{Point: p, id: -1})

	best := None(p)
	bestDistance := math.Inf(1)
	seen := make(map[int32]struct{})
	for _, item := range keeper.Heap {
		v, ok := item.Comparable.(vertexPoint)
		if !ok {
			continue
		}
		for _, i := range idx.incident[v.id] {
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			tri := idx.Triangle(int(i))
			q := tri.ClosestPoint(p)
			d := Distance(p, q)
			if d < bestDistance || (d == bestDistance && int(i) < best.Index) {
				best = SelectedTriangle{Index: int(i), Triangle: tri, Point: q}
				bestDistance = d
			}
		}
	}
	if bestDistance > maxDistance {
		return None(p)
	}
	return best
}

// SelectedTriangles returns, in ascending order, the indices of the triangles
// whose bounding box intersects box.
func (idx *Index) SelectedTriangles(box geometry.Box) []int {
	if !idx.bounds.Intersects(box) {
		return nil
	}
	x0, y0 := idx.cellCoords(box.Min)
	x1, y1 := idx.cellCoords(box.Max)
	seen := make(map[int32]struct{})
	var result []int
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			for _, i := range idx.cells[cy*idx.nx+cx] {
				if _, dup := seen[i]; dup {
					continue
				}
				seen[i] = struct{}{}
				if idx.Triangle(int(i)).Bounds().Intersects(box) {
					result = append(result, int(i))
				}
			}
		}
	}
	sort.Ints(result)
	return result
}

// Distance returns the great-circle distance in meters between two points.
func Distance(a, b geometry.Point) float64 {
	return float64(angle(a, b)) * EarthRadius
}

func angle(a, b geometry.Point) s1.Angle {
	return s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon))
}

func (idx *Index) buildCells() {
	bounds := idx.Triangle(0).Bounds()
	for i := 1; i < len(idx.triangles); i++ {
		b := idx.Triangle(i).Bounds()
		bounds.Min.Lon = math.Min(bounds.Min.Lon, b.Min.Lon)
		bounds.Min.Lat = math.Min(bounds.Min.Lat, b.Min.Lat)
		bounds.Max.Lon = math.Max(bounds.Max.Lon, b.Max.Lon)
		bounds.Max.Lat = math.Max(bounds.Max.Lat, b.Max.Lat)
	}
	idx.bounds = bounds

	width := bounds.Max.Lon - bounds.Min.Lon
	height := bounds.Max.Lat - bounds.Min.Lat
	// Roughly one triangle pair per cell.
	idx.cellSize = math.Sqrt(width * height * 2 / float64(len(idx.triangles)))
	if idx.cellSize == 0 || math.IsNaN(idx.cellSize) {
		idx.cellSize = math.Max(width, height)
	}
	idx.nx = int(width/idx.cellSize) + 1
	idx.ny = int(height/idx.cellSize) + 1
	// Elongated meshes get coarser cells.
	for maxCells := 4*len(idx.triangles) + 16; idx.nx*idx.ny > maxCells; {
		idx.cellSize *= 2
		idx.nx = int(width/idx.cellSize) + 1
		idx.ny = int(height/idx.cellSize) + 1
	}

	idx.cells = make(map[int][]int32)
	for i := range idx.triangles {
		b := idx.Triangle(i).Bounds()
		x0, y0 := idx.cellCoords(b.Min)
		x1, y1 := idx.cellCoords(b.Max)
		for cy := y0; cy <= y1; cy++ {
			for cx := x0; cx <= x1; cx++ {
				key := cy*idx.nx + cx
				idx.cells[key] = append(idx.cells[key], int32(i))
			}
		}
	}
}

func (idx *Index) cellCoords(p geometry.Point) (int, int) {
	cx := int((p.Lon - idx.bounds.Min.Lon) / idx.cellSize)
	cy := int((p.Lat - idx.bounds.Min.Lat) / idx.cellSize)
	return clamp(cx, idx.nx-1), clamp(cy, idx.ny-1)
}

func (idx *Index) cellOf(p geometry.Point) int {
	cx, cy := idx.cellCoords(p)
	return cy*idx.nx + cx
}

func clamp(v, hi int) int {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return hi
	}
	return v
}

func (idx *Index) buildTree() {
	points := make(vertexPoints, len(idx.vertices))
	for i, v := range idx.vertices {
		points[i] = vertexPoint{Point: v, id: int32(i)}
	}
	idx.tree = kdtree.New(points, false)
}

// vertexPoint implements kdtree.Comparable in the longitude/latitude plane.
type vertexPoint struct {
	geometry.Point
	id int32
}

func (p vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(vertexPoint)
	if d == 0 {
		return p.Lon - q.Lon
	}
	return p.Lat - q.Lat
}

func (p vertexPoint) Dims() int { return 2 }

func (p vertexPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(vertexPoint)
	dx := p.Lon - q.Lon
	dy := p.Lat - q.Lat
	return dx*dx + dy*dy
}

// vertexPoints implements kdtree.Interface.
type vertexPoints []vertexPoint

func (p vertexPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p vertexPoints) Len() int                              { return len(p) }
func (p vertexPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p vertexPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(vertexPlane{vertexPoints: p, Dim: d}, kdtree.MedianOfMedians(vertexPlane{vertexPoints: p, Dim: d}))
}

// vertexPlane implements kdtree.SortSlicer for one dimension.
type vertexPlane struct {
	vertexPoints
	kdtree.Dim
}

func (p vertexPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.vertexPoints[i].Lon < p.vertexPoints[j].Lon
	}
	return p.vertexPoints[i].Lat < p.vertexPoints[j].Lat
}

func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	return vertexPlane{vertexPoints: p.vertexPoints[start:end], Dim: p.Dim}
}

func (p vertexPlane) Swap(i, j int) {
	p.vertexPoints[i], p.vertexPoints[j] = p.vertexPoints[j], p.vertexPoints[i]
}
