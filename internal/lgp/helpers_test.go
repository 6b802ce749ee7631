package lgp

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/mesh"
)

// gridMesh triangulates [0,nx]x[0,ny] with unit cells split along their
// anti-diagonal. Vertex (i, j) has id j*(nx+1)+i.
func gridMesh(t *testing.T, nx, ny int) *mesh.Index {
	t.Helper()
	var vertices []geometry.Point
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			vertices = append(vertices, geometry.Point{Lon: float64(i), Lat: float64(j)})
		}
	}
	id := func(i, j int) int32 { return int32(j*(nx+1) + i) }
	var triangles [][3]int32
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			triangles = append(triangles,
				[3]int32{id(i, j), id(i+1, j), id(i, j+1)},
				[3]int32{id(i+1, j), id(i+1, j+1), id(i, j+1)},
			)
		}
	}
	idx, err := mesh.NewIndex(vertices, triangles)
	require.NoError(t, err)
	return idx
}

// vertexCodes returns continuous LGP1 codes: the code of a node is its vertex id.
func vertexCodes(t *testing.T, idx *mesh.Index, nx int) [][]int32 {
	t.Helper()
	codes := make([][]int32, idx.TriangleCount())
	for i := range codes {
		tri := idx.Triangle(i)
		row := make([]int32, 3)
		for v := 0; v < 3; v++ {
			p := tri.Vertex(v)
			row[v] = int32(int(p.Lat)*(nx+1) + int(p.Lon))
		}
		codes[i] = row
	}
	return codes
}

// discontinuousCodes gives every triangle its own 3N consecutive codes.
func discontinuousCodes(n, width int) [][]int32 {
	codes := make([][]int32, n)
	for i := range codes {
		row := make([]int32, width)
		for k := range row {
			row[k] = int32(i*width + k)
		}
		codes[i] = row
	}
	return codes
}

// nodePoints returns the physical positions of the nodes of triangle tri, in
// code column order.
func nodePoints(b Basis, tri geometry.Triangle) []geometry.Point {
	ref := nodes(b)
	points := make([]geometry.Point, len(ref))
	for k, r := range ref {
		points[k] = geometry.Point{
			Lon: tri.A.Lon + r[0]*(tri.B.Lon-tri.A.Lon) + r[1]*(tri.C.Lon-tri.A.Lon),
			Lat: tri.A.Lat + r[0]*(tri.B.Lat-tri.A.Lat) + r[1]*(tri.C.Lat-tri.A.Lat),
		}
	}
	return points
}

// sampleField fills discontinuous codes with f evaluated at each node.
func sampleField(b Basis, idx *mesh.Index, f func(geometry.Point) complex128) []complex128 {
	width := b.WeightCount()
	values := make([]complex128, idx.TriangleCount()*width)
	for i := 0; i < idx.TriangleCount(); i++ {
		for k, p := range nodePoints(b, idx.Triangle(i)) {
			values[i*width+k] = f(p)
		}
	}
	return values
}

func sameBits(a, b complex128) bool {
	return math.Float64bits(real(a)) == math.Float64bits(real(b)) &&
		math.Float64bits(imag(a)) == math.Float64bits(imag(b))
}

func isNaN(z complex128) bool {
	return math.IsNaN(real(z)) && math.IsNaN(imag(z)) && cmplx.IsNaN(z)
}

// countingIndex records the number of mesh searches.
type countingIndex struct {
	*mesh.Index
	searches int
}

func (c *countingIndex) Search(p geometry.Point, maxDistance float64) mesh.SelectedTriangle {
	c.searches++
	return c.Index.Search(p, maxDistance)
}
