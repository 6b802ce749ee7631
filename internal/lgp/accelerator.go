package lgp

import (
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/mesh"
)

// Accelerator remembers the triangle selected by the last interpolation so
// that consecutive queries falling in the same triangle skip the mesh search.
// It also owns the buffers the interpolation writes into.
//
// An Accelerator belongs to a single query stream and must not be shared
// between goroutines. An Accelerator is bound to the model that created it;
// passed to another model it is rebound and its cached selection dropped. The
// zero value binds to the first model it is used with.
type Accelerator[T Complex] struct {
	owner     *Model[T]
	selected  mesh.SelectedTriangle
	valid     bool
	values    []Value[T]
	weights   []float64
	positions []int
}

// Set replaces the cached selection.
func (a *Accelerator[T]) Set(selected mesh.SelectedTriangle) {
	a.selected = selected
	a.valid = true
}

// ResetPoint keeps the cached triangle and replaces the query point.
func (a *Accelerator[T]) ResetPoint(p geometry.Point) {
	a.selected.Point = p
}

// Get returns the cached selection.
func (a *Accelerator[T]) Get() mesh.SelectedTriangle {
	return a.selected
}

// InCache reports whether p lies in the cached triangle. Selections made by
// extrapolation never hit: the nearest triangle must be searched again.
func (a *Accelerator[T]) InCache(p geometry.Point) bool {
	return a.valid &&
		a.selected.Index != -1 &&
		a.selected.Inside &&
		a.selected.Triangle.CoveredBy(p)
}

// Values returns the result of the last interpolation.
func (a *Accelerator[T]) Values() []Value[T] {
	return a.values
}

// bind attaches the accelerator to m, discarding any selection made on
// another mesh.
func (a *Accelerator[T]) bind(m *Model[T]) {
	a.owner = m
	a.selected = mesh.None(geometry.Point{})
	a.valid = false
}

func (a *Accelerator[T]) clear() {
	a.values = a.values[:0]
}
