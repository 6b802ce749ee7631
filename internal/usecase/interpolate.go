package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/lgp"
)

// MaxBatchSize is the maximum number of locations in a batch request.
const MaxBatchSize = 10000

// ErrInvalidRequest is returned for requests that fail validation.
var ErrInvalidRequest = errors.New("invalid request")

// Location is a query point in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the location ranges. Longitudes may use either the
// [-180, 180] or the [0, 360] convention.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lon, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidRequest)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidRequest)
	}
	if l.Lon < -180 || l.Lon > 360 {
		return fmt.Errorf("%w: longitude must be between -180 and 360", ErrInvalidRequest)
	}
	return nil
}

// ConstituentResult is the interpolated value of a constituent. Numeric
// fields are nil when the value is undefined.
type ConstituentResult struct {
	Name          string   `json:"name"`
	AmplitudeM    *float64 `json:"amplitude_m"`
	PhaseDeg      *float64 `json:"phase_deg"`
	Real          *float64 `json:"real"`
	Imag          *float64 `json:"imag"`
	SpeedDegPerHr float64  `json:"speed_deg_per_hr,omitempty"`
}

// InterpolationResult holds every constituent at one location.
type InterpolationResult struct {
	Location
	Quality      domain.Quality      `json:"quality"`
	Constituents []ConstituentResult `json:"constituents"`
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	Degree          int      `json:"degree"`
	TideType        string   `json:"tide_type"`
	MaxDistanceM    float64  `json:"max_distance_m"`
	Constituents    []string `json:"constituents"`
	SelectedIndices int      `json:"selected_indices"`
}

// InterpolationUseCase answers interpolation queries against a model.
type InterpolationUseCase struct {
	model   lgp.TidalModel
	workers int
}

// NewInterpolationUseCase creates a use case running batches on at most
// workers goroutines.
func NewInterpolationUseCase(model lgp.TidalModel, workers int) *InterpolationUseCase {
	if workers < 1 {
		workers = 1
	}
	return &InterpolationUseCase{
		model:   model,
		workers: workers,
	}
}

// Interpolate evaluates the model at a single location.
func (uc *InterpolationUseCase) Interpolate(loc Location) (*InterpolationResult, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	result := evaluate(uc.model.NewQuery(), uc.model.Bounds(), loc)
	return &result, nil
}

// InterpolateBatch evaluates the model at every location. Results keep the
// order of locs.
func (uc *InterpolationUseCase) InterpolateBatch(ctx context.Context, locs []Location) ([]InterpolationResult, error) {
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: at least one location is required", ErrInvalidRequest)
	}
	if len(locs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: too many locations (%d), at most %d", ErrInvalidRequest, len(locs), MaxBatchSize)
	}
	for i, loc := range locs {
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("location %d: %w", i, err)
		}
	}

	results := make([]InterpolationResult, len(locs))
	workers := uc.workers
	if workers > len(locs) {
		workers = len(locs)
	}
	chunk := (len(locs) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(locs); start += chunk {
		end := min(start+chunk, len(locs))
		g.Go(func() error {
			// Each worker owns its query and therefore its accelerator.
			query := uc.model.NewQuery()
			bounds := uc.model.Bounds()
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = evaluate(query, bounds, locs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Info describes the loaded model.
func (uc *InterpolationUseCase) Info() ModelInfo {
	return ModelInfo{
		Degree:          uc.model.Degree(),
		TideType:        uc.model.TideType().String(),
		MaxDistanceM:    uc.model.MaxDistance(),
		Constituents:    uc.model.Constituents(),
		SelectedIndices: len(uc.model.SelectedIndices()),
	}
}

// Constituents lists the constituents of the model with their speeds.
// Constituents missing from the standard table have a zero speed.
func (uc *InterpolationUseCase) Constituents() []domain.Constituent {
	names := uc.model.Constituents()
	result := make([]domain.Constituent, len(names))
	for i, name := range names {
		speed, _ := domain.GetConstituentSpeed(name)
		result[i] = domain.Constituent{Name: name, SpeedDegPerHr: speed}
	}
	return result
}

func evaluate(query lgp.QueryFunc, bounds geometry.Box, loc Location) InterpolationResult {
	values, quality := query(geometry.Point{Lon: meshLon(bounds, loc.Lon), Lat: loc.Lat})
	result := InterpolationResult{
		Location:     loc,
		Quality:      quality,
		Constituents: make([]ConstituentResult, len(values)),
	}
	for i, v := range values {
		result.Constituents[i] = toResult(v)
	}
	return result
}

// meshLon expresses lon in the longitude convention of a mesh with the given
// bounds: [0, 360) for meshes extending east of 180, [-180, 180] otherwise.
func meshLon(bounds geometry.Box, lon float64) float64 {
	if bounds.Min.Lon >= 0 && bounds.Max.Lon > 180 {
		lon = math.Mod(lon, 360)
		if lon < 0 {
			lon += 360
		}
		return lon
	}
	if lon > 180 {
		return lon - 360
	}
	return lon
}

func toResult(v domain.ConstituentValue) ConstituentResult {
	param := v.Param()
	r := ConstituentResult{
		Name:          v.Name,
		SpeedDegPerHr: param.SpeedDegPerHr,
	}
	if !v.Defined() {
		return r
	}
	re, im := real(v.Value), imag(v.Value)
	r.AmplitudeM = &param.AmplitudeM
	r.PhaseDeg = &param.PhaseDeg
	r.Real = &re
	r.Imag = &im
	return r
}
