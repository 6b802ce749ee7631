// Package config loads the settings of the server and the atlas generator.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"go.ngs.io/tides-lgp/internal/lgp"
)

// DefaultConfigName is the base name of the optional server configuration
// file looked up in the home and working directories.
const DefaultConfigName = ".tides-lgp"

// Server holds the server settings.
type Server struct {
	Port           string
	AllowedOrigins []string
	ModelPath      string
	ModelDegree    int
	ModelPrecision lgp.Precision
	Workers        int
}

// LoadServer reads the server settings from the environment and, when
// present, a YAML file. An explicit path must exist; otherwise
// DefaultConfigName is searched and may be absent. Environment variables
// override the file.
func LoadServer(path string) (*Server, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("model_path", "./data/model.lgp")
	v.SetDefault("model_degree", 1)
	v.SetDefault("model_precision", string(lgp.Complex128))
	v.SetDefault("workers", runtime.NumCPU())
	for _, key := range []string{"port", "cors_allowed_origins", "model_path", "model_degree", "model_precision", "workers"} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path %s: %w", path, err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", expanded, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	modelPath, err := homedir.Expand(v.GetString("model_path"))
	if err != nil {
		return nil, fmt.Errorf("failed to expand model path: %w", err)
	}

	cfg := &Server{
		Port:           v.GetString("port"),
		AllowedOrigins: splitOrigins(v.GetStringSlice("cors_allowed_origins")),
		ModelPath:      modelPath,
		ModelDegree:    v.GetInt("model_degree"),
		ModelPrecision: lgp.Precision(strings.ToLower(v.GetString("model_precision"))),
		Workers:        v.GetInt("workers"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (s *Server) Validate() error {
	if s.Port == "" {
		return errors.New("port must not be empty")
	}
	if s.ModelPath == "" {
		return errors.New("model path must not be empty")
	}
	if s.ModelDegree != 1 && s.ModelDegree != 2 {
		return fmt.Errorf("model degree must be 1 or 2, got %d", s.ModelDegree)
	}
	if s.ModelPrecision != lgp.Complex64 && s.ModelPrecision != lgp.Complex128 {
		return fmt.Errorf("model precision must be %s or %s, got %q", lgp.Complex64, lgp.Complex128, s.ModelPrecision)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	return nil
}

// splitOrigins accepts both YAML lists and the comma-separated form of
// CORS_ALLOWED_ORIGINS.
func splitOrigins(values []string) []string {
	origins := make([]string, 0, len(values))
	for _, value := range values {
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}
