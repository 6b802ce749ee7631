// Package lgp interpolates tidal constituents modeled on an unstructured
// triangular mesh with discontinuous Lagrange polynomials of degree 1 or 2.
//
// A Model is built once (NewLGP1/NewLGP2 followed by AddConstituent calls)
// and is then read-only: any number of goroutines may interpolate
// concurrently, each with its own Accelerator.
package lgp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/mesh"
)

// Complex is the storage precision of the constituent values.
type Complex interface {
	complex64 | complex128
}

var (
	// ErrCodeRowMismatch is returned when the number of code rows differs from
	// the number of mesh triangles.
	ErrCodeRowMismatch = errors.New("index and codes must have the same number of triangles")
	// ErrCodeWidth is returned when a code row does not hold 3N codes.
	ErrCodeWidth = errors.New("invalid number of codes per triangle")
	// ErrNegativeCode is returned when a code is negative.
	ErrNegativeCode = errors.New("codes must be positive")
	// ErrEmptySelection is returned when the bounding box does not intersect
	// the mesh.
	ErrEmptySelection = errors.New("bounding box does not intersect the mesh")
	// ErrDataSize is returned when a constituent does not hold one value per
	// degree of freedom.
	ErrDataSize = errors.New("wave size does not match expected size")
	// ErrDuplicateConstituent is returned when a constituent is added twice.
	ErrDuplicateConstituent = errors.New("constituent already loaded")
	// ErrConstituentName is returned for an empty constituent name.
	ErrConstituentName = errors.New("constituent name must not be empty")
)

// MeshIndex is the spatial index the model searches triangles in.
// *mesh.Index implements it.
type MeshIndex interface {
	TriangleCount() int
	Bounds() geometry.Box
	Search(p geometry.Point, maxDistance float64) mesh.SelectedTriangle
	SelectedTriangles(box geometry.Box) []int
	MarshalBinary() ([]byte, error)
}

// Value is the interpolated value of one constituent.
type Value[T Complex] struct {
	Name  string
	Value T
}

// Option configures a model at construction.
type Option func(*options)

type options struct {
	maxDistance float64
	bbox        *geometry.Box
}

// WithMaxDistance sets the maximum distance, in meters, allowed to extrapolate
// outside the mesh. Zero, the default, disables extrapolation.
func WithMaxDistance(meters float64) Option {
	return func(o *options) { o.maxDistance = meters }
}

// WithBoundingBox restricts the degrees of freedom kept by the model to those
// of the triangles intersecting box.
func WithBoundingBox(box geometry.Box) Option {
	return func(o *options) { o.bbox = &box }
}

// Model is an LGP tidal model.
type Model[T Complex] struct {
	basis       Basis
	tideType    domain.TideType
	index       MeshIndex
	maxDistance float64

	// codes holds WeightCount() codes per triangle, row-major.
	codes []int32
	// selected maps a global code to its position in the constituent
	// vectors. Empty when no bounding box restricts the model.
	selected     map[int64]int64
	expectedSize int

	names []string
	data  map[string][]T
}

// NewLGP1 builds a linear LGP model. codes holds, for each triangle of index,
// the 3 codes of its vertices.
func NewLGP1[T Complex](index MeshIndex, codes [][]int32, tideType domain.TideType, opts ...Option) (*Model[T], error) {
	return newModel[T](LGP1, index, codes, tideType, opts...)
}

// NewLGP2 builds a quadratic LGP model. codes holds, for each triangle of
// index, the 6 codes of its nodes.
func NewLGP2[T Complex](index MeshIndex, codes [][]int32, tideType domain.TideType, opts ...Option) (*Model[T], error) {
	return newModel[T](LGP2, index, codes, tideType, opts...)
}

func newModel[T Complex](basis Basis, index MeshIndex, codes [][]int32, tideType domain.TideType, opts ...Option) (*Model[T], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if index.TriangleCount() != len(codes) {
		return nil, fmt.Errorf("%w: %d != %d", ErrCodeRowMismatch, index.TriangleCount(), len(codes))
	}
	width := basis.WeightCount()
	flat := make([]int32, 0, width*len(codes))
	for i, row := range codes {
		if len(row) != width {
			return nil, fmt.Errorf("%w: triangle %d has %d codes, LGP%d expects %d",
				ErrCodeWidth, i, len(row), basis.Degree(), width)
		}
		flat = append(flat, row...)
	}

	maxCode := int32(-1)
	for i, code := range flat {
		if code < 0 {
			return nil, fmt.Errorf("%w: triangle %d has code %d", ErrNegativeCode, i/width, code)
		}
		if code > maxCode {
			maxCode = code
		}
	}

	m := &Model[T]{
		basis:        basis,
		tideType:     tideType,
		index:        index,
		maxDistance:  o.maxDistance,
		codes:        flat,
		expectedSize: int(maxCode) + 1,
		data:         make(map[string][]T),
	}

	if o.bbox != nil {
		triangles := index.SelectedTriangles(*o.bbox)
		if len(triangles) == 0 {
			return nil, ErrEmptySelection
		}
		// A code may be shared by several triangles.
		unique := make(map[int64]struct{})
		for _, i := range triangles {
			for _, code := range m.row(i) {
				unique[int64(code)] = struct{}{}
			}
		}
		keys := make([]int64, 0, len(unique))
		for code := range unique {
			keys = append(keys, code)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		m.selected = make(map[int64]int64, len(keys))
		for pos, code := range keys {
			m.selected[code] = int64(pos)
		}
		m.expectedSize = len(keys)
	}
	return m, nil
}

// AddConstituent loads the values of a constituent, one per degree of freedom
// handled by the model. The slice is retained, not copied. It must not be
// called once the model is being queried.
func (m *Model[T]) AddConstituent(name string, values []T) error {
	if name == "" {
		return ErrConstituentName
	}
	if len(values) != m.expectedSize {
		return fmt.Errorf("%w: %d != %d", ErrDataSize, len(values), m.expectedSize)
	}
	if _, ok := m.data[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateConstituent, name)
	}
	m.data[name] = values
	i := sort.SearchStrings(m.names, name)
	m.names = append(m.names, "")
	copy(m.names[i+1:], m.names[i:])
	m.names[i] = name
	return nil
}

// NewAccelerator creates the per-stream cache to pass to Interpolate.
func (m *Model[T]) NewAccelerator() *Accelerator[T] {
	return &Accelerator[T]{
		owner:     m,
		selected:  mesh.None(geometry.Point{}),
		values:    make([]Value[T], 0, len(m.names)),
		weights:   make([]float64, 0, m.basis.WeightCount()),
		positions: make([]int, 0, m.basis.WeightCount()),
	}
}

// Interpolate evaluates every loaded constituent at p. The returned slice is
// owned by acc and is overwritten by the next call using acc.
//
// Points outside the mesh (beyond the extrapolation distance) or whose
// triangle uses degrees of freedom discarded by the bounding box yield NaN
// values and QualityUndefined.
func (m *Model[T]) Interpolate(p geometry.Point, acc *Accelerator[T]) ([]Value[T], domain.Quality) {
	if acc.owner != m {
		acc.bind(m)
	}
	if acc.InCache(p) {
		acc.ResetPoint(p)
	} else {
		acc.Set(m.index.Search(p, m.maxDistance))
	}
	acc.clear()

	selected := acc.Get()
	if selected.Index == -1 {
		return m.undefined(acc)
	}
	row := m.row(selected.Index)
	quality := domain.QualityExtrapolated
	if selected.Inside {
		quality = domain.QualityInterpolated
	}

	// On a vertex, the value is the one stored for that node.
	if v := selected.Triangle.IsVertex(selected.Point); v != -1 {
		pos, ok := m.position(row[m.basis.VertexColumn(v)])
		if !ok {
			return m.undefined(acc)
		}
		for _, name := range m.names {
			acc.values = append(acc.values, Value[T]{Name: name, Value: m.data[name][pos]})
		}
		return acc.values, quality
	}

	acc.positions = acc.positions[:0]
	for _, code := range row {
		pos, ok := m.position(code)
		if !ok {
			// The triangle straddles the bounding box.
			return m.undefined(acc)
		}
		acc.positions = append(acc.positions, pos)
	}

	x, y := selected.Triangle.ReferenceRightAngled(selected.Point)
	acc.weights = m.basis.Weights(x, y, acc.weights[:0])

	for _, name := range m.names {
		wave := m.data[name]
		var re, im float64
		for k, pos := range acc.positions {
			z := complex128(wave[pos])
			re += acc.weights[k] * real(z)
			im += acc.weights[k] * imag(z)
		}
		acc.values = append(acc.values, Value[T]{Name: name, Value: T(complex(re, im))})
	}
	return acc.values, quality
}

func (m *Model[T]) undefined(acc *Accelerator[T]) ([]Value[T], domain.Quality) {
	acc.clear()
	nan := T(complex(math.NaN(), math.NaN()))
	for _, name := range m.names {
		acc.values = append(acc.values, Value[T]{Name: name, Value: nan})
	}
	return acc.values, domain.QualityUndefined
}

func (m *Model[T]) row(i int) []int32 {
	w := m.basis.WeightCount()
	return m.codes[i*w : (i+1)*w]
}

// position translates a code into an index of the constituent vectors.
func (m *Model[T]) position(code int32) (int, bool) {
	if len(m.selected) == 0 {
		return int(code), true
	}
	pos, ok := m.selected[int64(code)]
	return int(pos), ok
}

// SelectedIndices returns the sorted codes retained by the bounding box, or
// an empty slice when the model is not restricted.
func (m *Model[T]) SelectedIndices() []int64 {
	result := make([]int64, 0, len(m.selected))
	for code := range m.selected {
		result = append(result, code)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// ExpectedDataSize returns the number of values each constituent must hold.
func (m *Model[T]) ExpectedDataSize() int {
	return m.expectedSize
}

// Degree returns the LGP degree.
func (m *Model[T]) Degree() int {
	return m.basis.Degree()
}

// TideType returns the kind of tide the model describes.
func (m *Model[T]) TideType() domain.TideType {
	return m.tideType
}

// MaxDistance returns the maximum extrapolation distance in meters.
func (m *Model[T]) MaxDistance() float64 {
	return m.maxDistance
}

// Bounds returns the bounding box of the mesh.
func (m *Model[T]) Bounds() geometry.Box {
	return m.index.Bounds()
}

// Index returns the mesh index shared by the model.
func (m *Model[T]) Index() MeshIndex {
	return m.index
}

// Constituents returns the names of the loaded constituents, sorted.
func (m *Model[T]) Constituents() []string {
	return append([]string(nil), m.names...)
}
