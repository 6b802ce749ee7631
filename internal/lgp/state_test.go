package lgp

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
)

func buildModel[T Complex](t *testing.T, b Basis, opts ...Option) *Model[T] {
	t.Helper()
	idx := gridMesh(t, 3, 2)
	m, err := newModel[T](b, idx, discontinuousCodes(idx.TriangleCount(), b.WeightCount()), domain.TideTypeRadial, opts...)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(int64(b.Degree())))
	for _, name := range []string{"S2", "M2", "K1"} {
		values := make([]T, m.ExpectedDataSize())
		for i := range values {
			values[i] = T(complex(rng.NormFloat64(), rng.NormFloat64()))
		}
		require.NoError(t, m.AddConstituent(name, values))
	}
	return m
}

func samplePoints() []geometry.Point {
	rng := rand.New(rand.NewSource(3))
	points := []geometry.Point{{Lon: 1, Lat: 1}, {Lon: 3.01, Lat: 1.5}, {Lon: 5, Lat: 5}}
	for i := 0; i < 50; i++ {
		points = append(points, geometry.Point{Lon: 3 * rng.Float64(), Lat: 2 * rng.Float64()})
	}
	return points
}

func assertSameModel[T Complex](t *testing.T, want, got *Model[T]) {
	t.Helper()
	assert.Equal(t, want.Degree(), got.Degree())
	assert.Equal(t, want.TideType(), got.TideType())
	assert.Equal(t, want.MaxDistance(), got.MaxDistance())
	assert.Equal(t, want.Constituents(), got.Constituents())
	assert.Equal(t, want.SelectedIndices(), got.SelectedIndices())
	assert.Equal(t, want.ExpectedDataSize(), got.ExpectedDataSize())

	accWant, accGot := want.NewAccelerator(), got.NewAccelerator()
	for _, p := range samplePoints() {
		vw, qw := want.Interpolate(p, accWant)
		vg, qg := got.Interpolate(p, accGot)
		require.Equal(t, qw, qg, "%v", p)
		require.Len(t, vg, len(vw))
		for i := range vw {
			assert.Equal(t, vw[i].Name, vg[i].Name)
			assert.True(t, sameBits(complex128(vw[i].Value), complex128(vg[i].Value)),
				"%s at %v: %v != %v", vw[i].Name, p, vw[i].Value, vg[i].Value)
		}
	}
}

func TestState_RoundTrip(t *testing.T) {
	box := WithBoundingBox(geometry.NewBox(0.5, 0.5, 1.5, 1.2))
	far := WithMaxDistance(20000)

	t.Run("LGP1 complex128", func(t *testing.T) {
		m := buildModel[complex128](t, LGP1, far)
		data, err := m.GetState()
		require.NoError(t, err)
		got, err := SetStateLGP1[complex128](data)
		require.NoError(t, err)
		assertSameModel(t, m, got)

		again, err := got.GetState()
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})

	t.Run("LGP2 complex128 bbox", func(t *testing.T) {
		m := buildModel[complex128](t, LGP2, box, far)
		require.NotEmpty(t, m.SelectedIndices())
		data, err := m.GetState()
		require.NoError(t, err)
		got, err := SetStateLGP2[complex128](data)
		require.NoError(t, err)
		assertSameModel(t, m, got)
	})

	t.Run("LGP1 complex64 bbox", func(t *testing.T) {
		m := buildModel[complex64](t, LGP1, box)
		data, err := m.GetState()
		require.NoError(t, err)
		got, err := SetStateLGP1[complex64](data)
		require.NoError(t, err)
		assertSameModel(t, m, got)
	})

	t.Run("LGP2 complex64", func(t *testing.T) {
		m := buildModel[complex64](t, LGP2)
		data, err := m.GetState()
		require.NoError(t, err)
		got, err := SetStateLGP2[complex64](data)
		require.NoError(t, err)
		assertSameModel(t, m, got)
	})
}

func TestState_Invalid(t *testing.T) {
	m := buildModel[complex128](t, LGP1)
	data, err := m.GetState()
	require.NoError(t, err)

	for _, n := range []int{0, 1, 9, len(data) / 2, len(data) - 1} {
		_, err := SetStateLGP1[complex128](data[:n])
		assert.ErrorIs(t, err, ErrInvalidLGP1State, "truncated to %d bytes", n)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.False(t, errors.Is(err, ErrInvalidLGP2State))
	}

	_, err = SetStateLGP1[complex128](append(append([]byte(nil), data...), 0))
	assert.ErrorIs(t, err, ErrInvalidLGP1State, "trailing bytes")

	// Three codes per triangle cannot describe an LGP2 model.
	_, err = SetStateLGP2[complex128](data)
	assert.ErrorIs(t, err, ErrInvalidLGP2State)
	assert.ErrorIs(t, err, ErrInvalidState)

	// complex128 values read as complex64 leave bytes behind.
	_, err = SetStateLGP1[complex64](data)
	assert.ErrorIs(t, err, ErrInvalidLGP1State)

	bad := append([]byte(nil), data...)
	bad[0] = 9
	_, err = SetStateLGP1[complex128](bad)
	assert.ErrorIs(t, err, ErrInvalidLGP1State, "unknown tide type")

	// The mesh vertices follow the tide type, the mesh length and the vertex
	// count.
	const vertexOffset = 1 + 8 + 8
	for _, v := range []float64{1e13, -1e13, 400} {
		bad = append([]byte(nil), data...)
		binary.LittleEndian.PutUint64(bad[vertexOffset+16:], math.Float64bits(v))
		_, err = SetStateLGP1[complex128](bad)
		assert.ErrorIs(t, err, ErrInvalidLGP1State, "vertex longitude %g", v)
	}
	bad = append([]byte(nil), data...)
	binary.LittleEndian.PutUint64(bad[vertexOffset+8:], math.Float64bits(-95))
	_, err = SetStateLGP1[complex128](bad)
	assert.ErrorIs(t, err, ErrInvalidLGP1State, "vertex latitude")
}

func TestLoadState(t *testing.T) {
	m := buildModel[complex64](t, LGP2, WithMaxDistance(1000))
	data, err := m.GetState()
	require.NoError(t, err)

	model, err := LoadState(2, Complex64, data)
	require.NoError(t, err)
	assert.Equal(t, 2, model.Degree())
	assert.Equal(t, domain.TideTypeRadial, model.TideType())
	assert.Equal(t, 1000.0, model.MaxDistance())
	assert.Equal(t, []string{"K1", "M2", "S2"}, model.Constituents())

	query := model.NewQuery()
	acc := m.NewAccelerator()
	p := geometry.Point{Lon: 1.3, Lat: 0.4}
	got, quality := query(p)
	want, wantQuality := m.Interpolate(p, acc)
	assert.Equal(t, wantQuality, quality)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, complex128(want[i].Value), got[i].Value)
	}

	state, err := model.GetState()
	require.NoError(t, err)
	assert.Equal(t, data, state)

	_, err = LoadState(1, Complex64, data)
	assert.ErrorIs(t, err, ErrInvalidLGP1State)
	_, err = LoadState(3, Complex64, data)
	assert.Error(t, err)
	_, err = LoadState(2, "complex32", data)
	assert.Error(t, err)

	// Precision defaults to complex128.
	_, err = LoadState(2, "", data)
	assert.ErrorIs(t, err, ErrInvalidLGP2State)
}
