package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/lgp"
	"go.ngs.io/tides-lgp/internal/mesh"
)

// newTestModel returns an LGP1 model over the unit square [139,140]x[35,36]
// split in two triangles, with M2 equal to 1 everywhere and K1 varying with
// longitude.
func newTestModel(t *testing.T) *lgp.Model[complex128] {
	t.Helper()
	idx, err := mesh.NewIndex(
		[]geometry.Point{{Lon: 139, Lat: 35}, {Lon: 140, Lat: 35}, {Lon: 139, Lat: 36}, {Lon: 140, Lat: 36}},
		[][3]int32{{0, 1, 2}, {1, 3, 2}},
	)
	require.NoError(t, err)
	m, err := lgp.NewLGP1[complex128](idx, [][]int32{{0, 1, 2}, {1, 3, 2}}, domain.TideTypeTide)
	require.NoError(t, err)
	require.NoError(t, m.AddConstituent("M2", []complex128{1, 1, 1, 1}))
	require.NoError(t, m.AddConstituent("K1", []complex128{1i, 1i + 2, 1i, 1i + 2}))
	return m
}

func TestLocation_Validate(t *testing.T) {
	tests := []struct {
		loc     Location
		wantErr bool
	}{
		{Location{Lat: 35, Lon: 139}, false},
		{Location{Lat: -90, Lon: 359.5}, false},
		{Location{Lat: 91, Lon: 0}, true},
		{Location{Lat: 0, Lon: -181}, true},
		{Location{Lat: 0, Lon: 361}, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.loc), func(t *testing.T) {
			err := tt.loc.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInterpolate(t *testing.T) {
	uc := NewInterpolationUseCase(newTestModel(t), 4)

	result, err := uc.Interpolate(Location{Lat: 35.25, Lon: 139.5})
	require.NoError(t, err)
	assert.Equal(t, domain.QualityInterpolated, result.Quality)
	require.Len(t, result.Constituents, 2)

	k1 := result.Constituents[0]
	assert.Equal(t, "K1", k1.Name)
	require.NotNil(t, k1.Real)
	assert.InDelta(t, 1.0, *k1.Real, 1e-9)
	assert.InDelta(t, 1.0, *k1.Imag, 1e-9)
	assert.InDelta(t, 45.0, *k1.PhaseDeg, 1e-9)
	assert.Greater(t, k1.SpeedDegPerHr, 0.0)

	m2 := result.Constituents[1]
	assert.Equal(t, "M2", m2.Name)
	assert.InDelta(t, 1.0, *m2.AmplitudeM, 1e-9)
	assert.InDelta(t, 0.0, *m2.PhaseDeg, 1e-9)

	_, err = uc.Interpolate(Location{Lat: 100, Lon: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestInterpolate_Undefined(t *testing.T) {
	uc := NewInterpolationUseCase(newTestModel(t), 1)
	result, err := uc.Interpolate(Location{Lat: 0, Lon: 0})
	require.NoError(t, err)
	assert.Equal(t, domain.QualityUndefined, result.Quality)
	for _, c := range result.Constituents {
		assert.Nil(t, c.AmplitudeM)
		assert.Nil(t, c.PhaseDeg)
		assert.Nil(t, c.Real)
		assert.Nil(t, c.Imag)
	}
}

func TestInterpolateBatch(t *testing.T) {
	uc := NewInterpolationUseCase(newTestModel(t), 3)

	locs := make([]Location, 0, 101)
	for i := 0; i <= 100; i++ {
		locs = append(locs, Location{Lat: 35.5, Lon: 139 + float64(i)/100})
	}
	locs = append(locs, Location{Lat: 10, Lon: 10})

	results, err := uc.InterpolateBatch(context.Background(), locs)
	require.NoError(t, err)
	require.Len(t, results, len(locs))
	for i, r := range results[:101] {
		assert.Equal(t, locs[i], r.Location)
		assert.Equal(t, domain.QualityInterpolated, r.Quality)
		assert.InDelta(t, 2*float64(i)/100, *r.Constituents[0].Real, 1e-9)
	}
	assert.Equal(t, domain.QualityUndefined, results[101].Quality)

	single, err := uc.Interpolate(locs[42])
	require.NoError(t, err)
	assert.Equal(t, *single, results[42])
}

func TestInterpolateBatch_Errors(t *testing.T) {
	uc := NewInterpolationUseCase(newTestModel(t), 2)

	_, err := uc.InterpolateBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = uc.InterpolateBatch(context.Background(), make([]Location, MaxBatchSize+1))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = uc.InterpolateBatch(context.Background(), []Location{{Lat: 35, Lon: 139}, {Lat: -95, Lon: 0}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "location 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = uc.InterpolateBatch(ctx, []Location{{Lat: 35, Lon: 139}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInfo(t *testing.T) {
	uc := NewInterpolationUseCase(newTestModel(t), 0)
	info := uc.Info()
	assert.Equal(t, 1, info.Degree)
	assert.Equal(t, "tide", info.TideType)
	assert.Equal(t, []string{"K1", "M2"}, info.Constituents)
	assert.Zero(t, info.SelectedIndices)

	constituents := uc.Constituents()
	require.Len(t, constituents, 2)
	assert.Equal(t, "M2", constituents[1].Name)
	assert.InDelta(t, 28.9841042, constituents[1].SpeedDegPerHr, 1e-9)
}

func TestMeshLon(t *testing.T) {
	east := geometry.NewBox(0, -80, 360, 80)
	west := geometry.NewBox(-180, -80, 180, 80)
	tests := []struct {
		bounds geometry.Box
		lon    float64
		want   float64
	}{
		{east, -9.5, 350.5},
		{east, 139, 139},
		{east, 360, 0},
		{west, 350.5, -9.5},
		{west, -9.5, -9.5},
		{geometry.NewBox(139, 35, 140, 36), 139.5, 139.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, meshLon(tt.bounds, tt.lon), "%v in %v", tt.lon, tt.bounds)
	}
}

func TestInterpolate_WrappedLongitude(t *testing.T) {
	idx, err := mesh.NewIndex(
		[]geometry.Point{{Lon: 350, Lat: 0}, {Lon: 351, Lat: 0}, {Lon: 350, Lat: 1}},
		[][3]int32{{0, 1, 2}},
	)
	require.NoError(t, err)
	m, err := lgp.NewLGP1[complex128](idx, [][]int32{{0, 1, 2}}, domain.TideTypeTide)
	require.NoError(t, err)
	require.NoError(t, m.AddConstituent("M2", []complex128{1, 2, 3}))

	uc := NewInterpolationUseCase(m, 1)
	result, err := uc.Interpolate(Location{Lat: 0.25, Lon: -9.75})
	require.NoError(t, err)
	assert.Equal(t, domain.QualityInterpolated, result.Quality)
	assert.Equal(t, -9.75, result.Lon)
	assert.InDelta(t, 0.5*1+0.25*2+0.25*3, *result.Constituents[0].Real, 1e-9)
}
