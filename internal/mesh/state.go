package mesh

import (
	"fmt"

	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/serialize"
)

// MarshalBinary encodes the mesh vertices and triangles. Search structures are
// rebuilt on decoding.
func (idx *Index) MarshalBinary() ([]byte, error) {
	w := serialize.NewWriter()
	w.Int64(int64(len(idx.vertices)))
	coords := make([]float64, 0, 2*len(idx.vertices))
	for _, v := range idx.vertices {
		coords = append(coords, v.Lon, v.Lat)
	}
	w.Float64s(coords)

	w.Int64(int64(len(idx.triangles)))
	flat := make([]int32, 0, 3*len(idx.triangles))
	for _, t := range idx.triangles {
		flat = append(flat, t[0], t[1], t[2])
	}
	w.Int32s(flat)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode mesh index: %w", err)
	}
	return w.Bytes(), nil
}

// UnmarshalIndex decodes an index produced by MarshalBinary.
func UnmarshalIndex(data []byte) (*Index, error) {
	r := serialize.NewReader(data)
	nv := r.Length(16)
	coords := r.Float64s(2 * nv)
	nt := r.Length(12)
	flat := r.Int32s(3 * nt)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode mesh index: %w", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("failed to decode mesh index: %d trailing bytes", r.Remaining())
	}

	vertices := make([]geometry.Point, nv)
	for i := range vertices {
		vertices[i] = geometry.Point{Lon: coords[2*i], Lat: coords[2*i+1]}
	}
	triangles := make([][3]int32, nt)
	for i := range triangles {
		triangles[i] = [3]int32{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return NewIndex(vertices, triangles)
}
