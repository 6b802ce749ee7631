package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/usecase"
)

// Handler handles HTTP requests for constituent interpolation.
type Handler struct {
	interpolationUC *usecase.InterpolationUseCase
	metrics         *Metrics
}

// NewHandler creates a new HTTP handler.
func NewHandler(interpolationUC *usecase.InterpolationUseCase, metrics *Metrics) *Handler {
	return &Handler{
		interpolationUC: interpolationUC,
		metrics:         metrics,
	}
}

// BatchRequest is the body of POST /v1/interpolate/batch.
type BatchRequest struct {
	Locations []usecase.Location `json:"locations"`
}

// GetInterpolation handles GET /v1/interpolate.
func (h *Handler) GetInterpolation(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon parameters are required"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	result, err := h.interpolationUC.Interpolate(usecase.Location{Lat: lat, Lon: lon})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.metrics.ObserveQuality(result.Quality)

	c.JSON(http.StatusOK, result)
}

// PostBatchInterpolation handles POST /v1/interpolate/batch.
func (h *Handler) PostBatchInterpolation(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	results, err := h.interpolationUC.InterpolateBatch(c.Request.Context(), req.Locations)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Batch interpolation failed (request %s): %v", c.GetString(requestIDKey), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	h.metrics.ObserveBatch(len(results))
	counts := make(map[domain.Quality]int)
	for _, r := range results {
		h.metrics.ObserveQuality(r.Quality)
		counts[r.Quality]++
	}

	c.JSON(http.StatusOK, gin.H{
		"results":      results,
		"count":        len(results),
		"interpolated": counts[domain.QualityInterpolated],
		"extrapolated": counts[domain.QualityExtrapolated],
		"undefined":    counts[domain.QualityUndefined],
	})
}

// GetModel handles GET /v1/model.
func (h *Handler) GetModel(c *gin.Context) {
	c.JSON(http.StatusOK, h.interpolationUC.Info())
}

// ConstituentListResponse is the response for listing constituents.
type ConstituentListResponse struct {
	Name          string  `json:"name"`
	SpeedDegPerHr float64 `json:"speed_deg_per_hr"`
	Description   string  `json:"description,omitempty"`
}

// descriptions of the major constituents.
var descriptions = map[string]string{
	"M2":  "Principal lunar semidiurnal",
	"S2":  "Principal solar semidiurnal",
	"N2":  "Larger lunar elliptic semidiurnal",
	"K2":  "Lunisolar semidiurnal",
	"K1":  "Lunar diurnal",
	"O1":  "Lunar diurnal",
	"P1":  "Solar diurnal",
	"Q1":  "Larger lunar elliptic diurnal",
	"2N2": "Lunar elliptic semidiurnal second-order",
	"Mu2": "Variational",
	"Nu2": "Larger lunar evectional",
	"L2":  "Smaller lunar elliptic semidiurnal",
	"T2":  "Larger solar elliptic",
	"J1":  "Smaller lunar elliptic diurnal",
	"M4":  "Shallow water overtide of M2",
	"M6":  "Shallow water overtide of M2",
	"M8":  "Shallow water eighth diurnal",
	"M3":  "Lunar terdiurnal",
	"MK3": "Shallow water terdiurnal",
	"N4":  "Shallow water overtide of N2",
	"S4":  "Shallow water overtide of S2",
	"MN4": "Shallow water quarter diurnal",
	"MS4": "Shallow water quarter diurnal",
	"Mf":  "Lunisolar fortnightly",
	"MSf": "Lunisolar synodic fortnightly",
	"Mm":  "Lunar monthly",
	"Ssa": "Solar semiannual",
	"Sa":  "Solar annual",
}

// GetConstituentsList returns the constituents of the loaded model, or every
// known constituent with scope=all.
func (h *Handler) GetConstituentsList(c *gin.Context) {
	var constituents []domain.Constituent
	switch scope := c.DefaultQuery("scope", "model"); scope {
	case "model":
		constituents = h.interpolationUC.Constituents()
	case "all":
		constituents = domain.GetAllConstituents()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid scope %q (use model or all)", scope)})
		return
	}

	response := make([]ConstituentListResponse, len(constituents))
	for i, c := range constituents {
		response[i] = ConstituentListResponse{
			Name:          c.Name,
			SpeedDegPerHr: c.SpeedDegPerHr,
			Description:   descriptions[c.Name],
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"constituents": response,
		"count":        len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
