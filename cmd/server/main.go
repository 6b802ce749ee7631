// Package main provides the LGP tidal interpolation HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.ngs.io/tides-lgp/internal/config"
	httpHandler "go.ngs.io/tides-lgp/internal/http"
	"go.ngs.io/tides-lgp/internal/lgp"
	"go.ngs.io/tides-lgp/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("tides-lgp version %s\n", version)
		return
	}

	// Load configuration from environment and optional file.
	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting LGP interpolation server...")
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Model: %s (LGP%d, %s)", cfg.ModelPath, cfg.ModelDegree, cfg.ModelPrecision)
	log.Printf("Workers: %d", cfg.Workers)

	model, err := loadModel(cfg)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	log.Printf("Model loaded: %s, %d constituents %v", model.TideType(), len(model.Constituents()), model.Constituents())
	if model.MaxDistance() > 0 {
		log.Printf("  Extrapolation up to %.0f m", model.MaxDistance())
	} else {
		log.Printf("  Extrapolation disabled")
	}
	if n := len(model.SelectedIndices()); n > 0 {
		log.Printf("  Restricted to %d degrees of freedom", n)
	}

	// Initialize use case.
	interpolationUC := usecase.NewInterpolationUseCase(model, cfg.Workers)

	// Setup router.
	router := httpHandler.SetupRouter(interpolationUC, httpHandler.NewMetrics(), cfg.AllowedOrigins)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/interpolate")
	log.Printf("  - POST /v1/interpolate/batch")
	log.Printf("  - GET /v1/model")
	log.Printf("  - GET /v1/constituents")
	log.Printf("  - GET /metrics")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadModel reads and decodes the serialized model.
func loadModel(cfg *config.Server) (lgp.TidalModel, error) {
	data, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.ModelPath, err)
	}
	model, err := lgp.LoadState(cfg.ModelDegree, cfg.ModelPrecision, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", cfg.ModelPath, err)
	}
	return model, nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("LGP Tides Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  tides-lgp [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -config FILE   YAML configuration file (default: ~/.tides-lgp.yaml if present)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  MODEL_PATH              Serialized LGP model (default: ./data/model.lgp)")
	fmt.Println("  MODEL_DEGREE            LGP degree of the model, 1 or 2 (default: 1)")
	fmt.Println("  MODEL_PRECISION         complex64 or complex128 (default: complex128)")
	fmt.Println("  WORKERS                 Goroutines per batch request (default: number of CPUs)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Generate a model, then serve it")
	fmt.Println("  lgp-generator -I data/generator.yaml")
	fmt.Println("  MODEL_DEGREE=2 MODEL_PRECISION=complex64 tides-lgp")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 tides-lgp")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                    Health check")
	fmt.Println("  GET  /metrics                   Prometheus metrics")
	fmt.Println("  GET  /v1/model                  Model description")
	fmt.Println("  GET  /v1/constituents           Constituents of the model")
	fmt.Println("  GET  /v1/interpolate            Interpolate at lat/lon")
	fmt.Println("  POST /v1/interpolate/batch      Interpolate at many locations")
	fmt.Println()
}
