package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/lgp"
	"go.ngs.io/tides-lgp/internal/mesh"
	"go.ngs.io/tides-lgp/internal/usecase"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idx, err := mesh.NewIndex(
		[]geometry.Point{{Lon: 139, Lat: 35}, {Lon: 140, Lat: 35}, {Lon: 139, Lat: 36}, {Lon: 140, Lat: 36}},
		[][3]int32{{0, 1, 2}, {1, 3, 2}},
	)
	require.NoError(t, err)
	m, err := lgp.NewLGP1[complex64](idx, [][]int32{{0, 1, 2}, {1, 3, 2}}, domain.TideTypeTide, lgp.WithMaxDistance(10000))
	require.NoError(t, err)
	require.NoError(t, m.AddConstituent("M2", []complex64{1, 1, 1, 1}))
	require.NoError(t, m.AddConstituent("S2", []complex64{1i, 1i, 1i, 1i}))

	return SetupRouter(usecase.NewInterpolationUseCase(m, 2), NewMetrics(), nil)
}

func do(t *testing.T, router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetInterpolation(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/interpolate?lat=35.2&lon=139.3", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Lat          float64 `json:"lat"`
		Lon          float64 `json:"lon"`
		Quality      string  `json:"quality"`
		Constituents []struct {
			Name       string   `json:"name"`
			AmplitudeM *float64 `json:"amplitude_m"`
			PhaseDeg   *float64 `json:"phase_deg"`
		} `json:"constituents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "interpolated", result.Quality)
	assert.Equal(t, 35.2, result.Lat)
	require.Len(t, result.Constituents, 2)
	assert.Equal(t, "M2", result.Constituents[0].Name)
	require.NotNil(t, result.Constituents[0].AmplitudeM)
	assert.InDelta(t, 1.0, *result.Constituents[0].AmplitudeM, 1e-6)
	assert.InDelta(t, 90.0, *result.Constituents[1].PhaseDeg, 1e-4)

	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err, "generated request id")
}

func TestGetInterpolation_Undefined(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/interpolate?lat=0&lon=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quality":"undefined"`)
	assert.Contains(t, w.Body.String(), `"amplitude_m":null`)
}

func TestGetInterpolation_BadRequest(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{
		"/v1/interpolate",
		"/v1/interpolate?lat=35",
		"/v1/interpolate?lat=abc&lon=139",
		"/v1/interpolate?lat=35&lon=abc",
		"/v1/interpolate?lat=95&lon=139",
	} {
		w := do(t, router, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), `"error"`, target)
	}
}

func TestPostBatchInterpolation(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(BatchRequest{Locations: []usecase.Location{
		{Lat: 35.5, Lon: 139.5},
		{Lat: 35.5, Lon: 140.05},
		{Lat: -10, Lon: 20},
	}})
	require.NoError(t, err)

	w := do(t, router, http.MethodPost, "/v1/interpolate/batch", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []struct {
			Quality string `json:"quality"`
		} `json:"results"`
		Count        int `json:"count"`
		Interpolated int `json:"interpolated"`
		Extrapolated int `json:"extrapolated"`
		Undefined    int `json:"undefined"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 1, resp.Interpolated)
	assert.Equal(t, 1, resp.Extrapolated)
	assert.Equal(t, 1, resp.Undefined)
	assert.Equal(t, "extrapolated", resp.Results[1].Quality)

	w = do(t, router, http.MethodPost, "/v1/interpolate/batch", []byte(`{"locations": []}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/v1/interpolate/batch", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelAndConstituents(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/model", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info usecase.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 1, info.Degree)
	assert.Equal(t, "tide", info.TideType)
	assert.Equal(t, 10000.0, info.MaxDistanceM)
	assert.Equal(t, []string{"M2", "S2"}, info.Constituents)

	w = do(t, router, http.MethodGet, "/v1/constituents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Constituents []ConstituentListResponse `json:"constituents"`
		Count        int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "Principal lunar semidiurnal", list.Constituents[0].Description)

	w = do(t, router, http.MethodGet, "/v1/constituents?scope=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, len(domain.StandardConstituents), list.Count)

	w = do(t, router, http.MethodGet, "/v1/constituents?scope=station", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	do(t, router, http.MethodGet, "/v1/interpolate?lat=35.2&lon=139.3", nil)
	do(t, router, http.MethodGet, "/v1/interpolate?lat=0&lon=0", nil)

	w = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `lgp_interpolations_total{quality="interpolated"} 1`)
	assert.Contains(t, body, `lgp_interpolations_total{quality="undefined"} 1`)
	assert.True(t, strings.Contains(body, `route="/v1/interpolate"`))
}
