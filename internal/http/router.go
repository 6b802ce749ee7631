package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go.ngs.io/tides-lgp/internal/usecase"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows all origins.
func SetupRouter(interpolationUC *usecase.InterpolationUseCase, metrics *Metrics, allowedOrigins []string) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddExposeHeaders(requestIDHeader)

	router.Use(cors.New(corsConfig))
	router.Use(requestID())
	router.Use(metrics.Middleware())

	// Create handler.
	handler := NewHandler(interpolationUC, metrics)

	// API v1 routes.
	v1 := router.Group("/v1")
	// Interpolation.
	v1.GET("/interpolate", handler.GetInterpolation)
	v1.POST("/interpolate/batch", handler.PostBatchInterpolation)

	// Model description.
	v1.GET("/model", handler.GetModel)
	v1.GET("/constituents", handler.GetConstituentsList)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}

// requestID propagates the X-Request-ID header, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
