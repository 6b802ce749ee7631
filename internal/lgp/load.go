package lgp

import (
	"fmt"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
)

// Precision names the storage type of the constituent values.
type Precision string

const (
	// Complex64 stores values as single precision complex numbers.
	Complex64 Precision = "complex64"
	// Complex128 stores values as double precision complex numbers.
	Complex128 Precision = "complex128"
)

// QueryFunc interpolates all constituents at a point. Each QueryFunc owns its
// accelerator: use one per goroutine.
type QueryFunc func(p geometry.Point) ([]domain.ConstituentValue, domain.Quality)

// TidalModel is the precision-independent view of a Model.
type TidalModel interface {
	Degree() int
	TideType() domain.TideType
	MaxDistance() float64
	Bounds() geometry.Box
	Constituents() []string
	SelectedIndices() []int64
	NewQuery() QueryFunc
	GetState() ([]byte, error)
}

// NewQuery returns a QueryFunc bound to a fresh accelerator. Values are
// widened to complex128.
func (m *Model[T]) NewQuery() QueryFunc {
	acc := m.NewAccelerator()
	return func(p geometry.Point) ([]domain.ConstituentValue, domain.Quality) {
		values, quality := m.Interpolate(p, acc)
		result := make([]domain.ConstituentValue, len(values))
		for i, v := range values {
			result[i] = domain.ConstituentValue{Name: v.Name, Value: complex128(v.Value)}
		}
		return result, quality
	}
}

// LoadState decodes a model of the given degree and precision.
func LoadState(degree int, precision Precision, data []byte) (TidalModel, error) {
	switch precision {
	case Complex64:
		return loadState[complex64](degree, data)
	case Complex128, "":
		return loadState[complex128](degree, data)
	}
	return nil, fmt.Errorf("unknown precision %q (use %s or %s)", precision, Complex64, Complex128)
}

func loadState[T Complex](degree int, data []byte) (TidalModel, error) {
	var (
		m   *Model[T]
		err error
	)
	switch degree {
	case 1:
		m, err = SetStateLGP1[T](data)
	case 2:
		m, err = SetStateLGP2[T](data)
	default:
		return nil, fmt.Errorf("unsupported LGP degree %d (use 1 or 2)", degree)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
