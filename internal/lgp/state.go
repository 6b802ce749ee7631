package lgp

import (
	"errors"
	"fmt"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/mesh"
	"go.ngs.io/tides-lgp/internal/serialize"
)

// ErrInvalidState matches any model state that cannot be decoded.
var ErrInvalidState = errors.New("invalid tidal model state")

var (
	// ErrInvalidLGP1State is returned when an LGP1 model state cannot be
	// decoded.
	ErrInvalidLGP1State error = &stateError{degree: 1}
	// ErrInvalidLGP2State is returned when an LGP2 model state cannot be
	// decoded.
	ErrInvalidLGP2State error = &stateError{degree: 2}
)

type stateError struct {
	degree int
}

func (e *stateError) Error() string {
	return fmt.Sprintf("invalid LGP%d tidal model state", e.degree)
}

func (e *stateError) Is(target error) bool {
	return target == ErrInvalidState
}

// GetState encodes the model: tide type, mesh index, maximum distance, codes,
// constituents and selected indices, in that order.
func (m *Model[T]) GetState() ([]byte, error) {
	index, err := m.index.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode LGP%d model: %w", m.Degree(), err)
	}

	w := serialize.NewWriter()
	w.Uint8(uint8(m.tideType))
	w.Blob(index)
	w.Float64(m.maxDistance)

	w.Int64(int64(len(m.codes) / m.basis.WeightCount()))
	w.Int64(int64(m.basis.WeightCount()))
	w.Int32s(m.codes)

	w.Int64(int64(len(m.names)))
	for _, name := range m.names {
		w.Text(name)
		writeValues(w, m.data[name])
	}

	keys := m.SelectedIndices()
	w.Int64(int64(len(keys)))
	for _, code := range keys {
		w.Int64(code)
		w.Int64(m.selected[code])
	}

	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode LGP%d model: %w", m.Degree(), err)
	}
	return w.Bytes(), nil
}

// SetStateLGP1 decodes an LGP1 model produced by GetState.
func SetStateLGP1[T Complex](data []byte) (*Model[T], error) {
	return setState[T](LGP1, data)
}

// SetStateLGP2 decodes an LGP2 model produced by GetState.
func SetStateLGP2[T Complex](data []byte) (*Model[T], error) {
	return setState[T](LGP2, data)
}

func setState[T Complex](basis Basis, data []byte) (*Model[T], error) {
	m, err := decode[T](basis, data)
	if err != nil {
		return nil, basis.invalidState()
	}
	return m, nil
}

func decode[T Complex](basis Basis, data []byte) (*Model[T], error) {
	r := serialize.NewReader(data)

	tideType := domain.TideType(r.Uint8())
	indexState := r.Blob()
	maxDistance := r.Float64()

	rows := r.Length(0)
	cols := r.Length(0)
	if r.Err() == nil && cols != basis.WeightCount() {
		return nil, fmt.Errorf("%w: %d columns", ErrCodeWidth, cols)
	}
	codes := r.Int32s(rows * cols)

	count := r.Length(1)
	names := make([]string, 0, count)
	values := make(map[string][]T, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		name := r.Text()
		values[name] = readValues[T](r)
		names = append(names, name)
	}

	selectedCount := r.Length(16)
	var selected map[int64]int64
	if selectedCount > 0 {
		selected = make(map[int64]int64, selectedCount)
	}
	for i := 0; i < selectedCount && r.Err() == nil; i++ {
		code := r.Int64()
		selected[code] = r.Int64()
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Remaining())
	}
	if !tideType.Valid() {
		return nil, fmt.Errorf("unknown tide type %d", tideType)
	}

	index, err := mesh.UnmarshalIndex(indexState)
	if err != nil {
		return nil, err
	}
	if index.TriangleCount() != rows {
		return nil, fmt.Errorf("%w: %d != %d", ErrCodeRowMismatch, index.TriangleCount(), rows)
	}

	m := &Model[T]{
		basis:       basis,
		tideType:    tideType,
		index:       index,
		maxDistance: maxDistance,
		codes:       codes,
		selected:    selected,
		data:        make(map[string][]T, len(names)),
	}
	maxCode := int32(-1)
	for _, code := range codes {
		if code < 0 {
			return nil, ErrNegativeCode
		}
		if code > maxCode {
			maxCode = code
		}
	}
	m.expectedSize = int(maxCode) + 1
	if len(selected) > 0 {
		m.expectedSize = len(selected)
		for _, pos := range selected {
			if pos < 0 || pos >= int64(len(selected)) {
				return nil, fmt.Errorf("selected position %d out of range", pos)
			}
		}
	}

	for _, name := range names {
		if err := m.AddConstituent(name, values[name]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func writeValues[T Complex](w *serialize.Writer, values []T) {
	w.Int64(int64(len(values)))
	switch v := any(values).(type) {
	case []complex64:
		for _, z := range v {
			w.Float32(real(z))
			w.Float32(imag(z))
		}
	case []complex128:
		flat := make([]float64, 0, 2*len(v))
		for _, z := range v {
			flat = append(flat, real(z), imag(z))
		}
		w.Float64s(flat)
	}
}

func readValues[T Complex](r *serialize.Reader) []T {
	var zero T
	switch any(zero).(type) {
	case complex64:
		n := r.Length(8)
		v := make([]complex64, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			re := r.Float32()
			v = append(v, complex(re, r.Float32()))
		}
		return any(v).([]T)
	default:
		n := r.Length(16)
		flat := r.Float64s(2 * n)
		v := make([]complex128, 0, n)
		for i := 0; i+1 < len(flat); i += 2 {
			v = append(v, complex(flat[i], flat[i+1]))
		}
		return any(v).([]T)
	}
}
