// Package synth generates synthetic LGP tidal atlases over regular regional
// meshes, seeded with the constituents of a reference station.
package synth

import (
	"errors"
	"fmt"
	"math"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/lgp"
	"go.ngs.io/tides-lgp/internal/mesh"
)

// RegionalGrid defines the geographic bounds and resolution.
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

// Size returns the number of grid nodes along each axis.
func (g RegionalGrid) Size() (nLat, nLon int) {
	nLat = int((g.LatMax-g.LatMin)/g.Resolution) + 1
	nLon = int((g.LonMax-g.LonMin)/g.Resolution) + 1
	return nLat, nLon
}

// Mesh triangulates the grid, splitting every cell along its anti-diagonal.
// Node (i, j) at latitude i and longitude j is vertex i*nLon+j.
func (g RegionalGrid) Mesh() (*mesh.Index, error) {
	if g.Resolution <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %g", g.Resolution)
	}
	nLat, nLon := g.Size()
	if nLat < 2 || nLon < 2 {
		return nil, fmt.Errorf("grid must have at least 2x2 nodes, got %dx%d", nLat, nLon)
	}

	vertices := make([]geometry.Point, 0, nLat*nLon)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			vertices = append(vertices, geometry.Point{
				Lon: g.LonMin + float64(j)*g.Resolution,
				Lat: g.LatMin + float64(i)*g.Resolution,
			})
		}
	}

	id := func(i, j int) int32 { return int32(i*nLon + j) }
	triangles := make([][3]int32, 0, 2*(nLat-1)*(nLon-1))
	for i := 0; i < nLat-1; i++ {
		for j := 0; j < nLon-1; j++ {
			triangles = append(triangles,
				[3]int32{id(i, j), id(i, j+1), id(i+1, j)},
				[3]int32{id(i, j+1), id(i+1, j+1), id(i+1, j)},
			)
		}
	}
	return mesh.NewIndex(vertices, triangles)
}

// DiscontinuousCodes gives every triangle its own width consecutive codes.
func DiscontinuousCodes(triangles, width int) [][]int32 {
	codes := make([][]int32, triangles)
	for i := range codes {
		row := make([]int32, width)
		for k := range row {
			row[k] = int32(i*width + k)
		}
		codes[i] = row
	}
	return codes
}

// Field is the synthetic distribution of one constituent: the station values
// taper away from the reference point, with smooth spatial variations.
type Field struct {
	Seed      domain.ConstituentParam
	Reference geometry.Point
}

// At returns the complex value of the constituent at p.
func (f Field) At(p geometry.Point) complex128 {
	// Distance from the reference point.
	latDist := p.Lat - f.Reference.Lat
	lonDist := p.Lon - f.Reference.Lon
	dist := math.Sqrt(latDist*latDist + lonDist*lonDist)

	// Amplitude: cosine taper, 100% at the reference, at least 50%.
	distFactor := math.Cos(dist * math.Pi / 20.0)
	if distFactor < 0.5 {
		distFactor = 0.5
	}
	spatialVar := 1.0 +
		0.15*math.Sin(p.Lat*math.Pi/15.0) +
		0.1*math.Cos(p.Lon*math.Pi/20.0) +
		0.05*math.Sin((p.Lat+p.Lon)*math.Pi/25.0)

	// Phase: 2 degrees per degree of distance plus geographic variation.
	phaseShift := dist * 2.0
	spatialPhase :=
		10.0*math.Sin(p.Lat*math.Pi/30.0) +
			8.0*math.Cos(p.Lon*math.Pi/40.0)

	return domain.FromParam(domain.ConstituentParam{
		Name:       f.Seed.Name,
		AmplitudeM: f.Seed.AmplitudeM * distFactor * spatialVar,
		PhaseDeg:   math.Mod(f.Seed.PhaseDeg+phaseShift+spatialPhase, 360.0),
	})
}

// Options describes the atlas to generate.
type Options struct {
	Grid        RegionalGrid
	Degree      int
	Precision   lgp.Precision
	TideType    domain.TideType
	MaxDistance float64 // meters
	BBox        *geometry.Box
	Reference   geometry.Point
}

// Build generates a model holding one constituent per seed.
func Build(opts Options, seeds []domain.ConstituentParam) (lgp.TidalModel, error) {
	if len(seeds) == 0 {
		return nil, errors.New("at least one constituent is required")
	}
	index, err := opts.Grid.Mesh()
	if err != nil {
		return nil, fmt.Errorf("failed to build mesh: %w", err)
	}
	switch opts.Precision {
	case lgp.Complex64:
		return build[complex64](opts, index, seeds)
	case lgp.Complex128, "":
		return build[complex128](opts, index, seeds)
	}
	return nil, fmt.Errorf("unknown precision %q", opts.Precision)
}

func build[T lgp.Complex](opts Options, index *mesh.Index, seeds []domain.ConstituentParam) (lgp.TidalModel, error) {
	var basis lgp.Basis
	switch opts.Degree {
	case 1:
		basis = lgp.LGP1
	case 2:
		basis = lgp.LGP2
	default:
		return nil, fmt.Errorf("unsupported LGP degree %d (use 1 or 2)", opts.Degree)
	}
	width := basis.WeightCount()
	codes := DiscontinuousCodes(index.TriangleCount(), width)

	modelOpts := []lgp.Option{lgp.WithMaxDistance(opts.MaxDistance)}
	if opts.BBox != nil {
		modelOpts = append(modelOpts, lgp.WithBoundingBox(*opts.BBox))
	}
	var (
		m   *lgp.Model[T]
		err error
	)
	if basis == lgp.LGP1 {
		m, err = lgp.NewLGP1[T](index, codes, opts.TideType, modelOpts...)
	} else {
		m, err = lgp.NewLGP2[T](index, codes, opts.TideType, modelOpts...)
	}
	if err != nil {
		return nil, err
	}

	// Node position of every retained code, in constituent vector order.
	retained := m.SelectedIndices()
	if len(retained) == 0 {
		retained = make([]int64, m.ExpectedDataSize())
		for i := range retained {
			retained[i] = int64(i)
		}
	}
	points := make([]geometry.Point, len(retained))
	for i, code := range retained {
		tri := index.Triangle(int(code) / width)
		points[i] = tri.FromReference(basis.Node(int(code) % width))
	}

	for _, seed := range seeds {
		field := Field{Seed: seed, Reference: opts.Reference}
		values := make([]T, len(points))
		for i, p := range points {
			values[i] = T(field.At(p))
		}
		if err := m.AddConstituent(seed.Name, values); err != nil {
			return nil, fmt.Errorf("constituent %s: %w", seed.Name, err)
		}
	}
	return m, nil
}
