package config

import (
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/go-homedir"

	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/lgp"
)

// BoundingBox restricts the generated model, in degrees.
type BoundingBox struct {
	LonMin float64 `json:"LonMin"`
	LatMin float64 `json:"LatMin"`
	LonMax float64 `json:"LonMax"`
	LatMax float64 `json:"LatMax"`
}

// GeneratorParameters are read from the generator YAML input file.
type GeneratorParameters struct {
	Title string `json:"Title"`
	// Region is japan, global or custom. Custom uses the Lat/Lon bounds.
	Region       string       `json:"Region"`
	LatMin       float64      `json:"LatMin"`
	LatMax       float64      `json:"LatMax"`
	LonMin       float64      `json:"LonMin"`
	LonMax       float64      `json:"LonMax"`
	Resolution   float64      `json:"Resolution"` // degrees
	Degree       int          `json:"Degree"`
	Precision    string       `json:"Precision"`
	TideType     string       `json:"TideType"`
	MaxDistanceM float64      `json:"MaxDistance"` // meters
	BBox         *BoundingBox `json:"BBox,omitempty"`
	DataDir      string       `json:"DataDir"`
	Station      string       `json:"Station"`
	ReferenceLat float64      `json:"ReferenceLat"`
	ReferenceLon float64      `json:"ReferenceLon"`
	Output       string       `json:"Output"`
}

// ExampleGeneratorFile is a complete generator input file.
const ExampleGeneratorFile = `
########################################
Title: "Japan synthetic atlas"
Region: japan      # japan, global or custom
Resolution: 0.25   # degrees
Degree: 2          # LGP degree, 1 or 2
Precision: complex64
TideType: tide     # tide or radial
MaxDistance: 5000  # meters, 0 disables extrapolation
DataDir: ./data
Station: tokyo
ReferenceLat: 35.6762
ReferenceLon: 139.6503
Output: ./data/model.lgp
########################################
`

// DefaultGeneratorParameters returns the parameters of the Japan region
// around Tokyo.
func DefaultGeneratorParameters() GeneratorParameters {
	return GeneratorParameters{
		Region:       "japan",
		Resolution:   0.1,
		Degree:       1,
		Precision:    string(lgp.Complex128),
		TideType:     domain.TideTypeTide.String(),
		DataDir:      "./data",
		Station:      "tokyo",
		ReferenceLat: 35.6762,
		ReferenceLon: 139.6503,
		Output:       "./data/model.lgp",
	}
}

// Parse reads YAML data over the current values and applies the region.
func (gp *GeneratorParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, gp); err != nil {
		return fmt.Errorf("failed to parse generator parameters: %w", err)
	}
	if err := gp.applyRegion(); err != nil {
		return err
	}
	return gp.Validate()
}

// ReadGeneratorParameters loads a generator input file over the defaults.
func ReadGeneratorParameters(path string) (*GeneratorParameters, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", path, err)
	}
	//nolint:gosec // G304: Path given on the command line.
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read generator parameters: %w", err)
	}
	gp := DefaultGeneratorParameters()
	if err := gp.Parse(data); err != nil {
		return nil, err
	}
	return &gp, nil
}

func (gp *GeneratorParameters) applyRegion() error {
	switch gp.Region {
	case "japan":
		gp.LatMin, gp.LatMax, gp.LonMin, gp.LonMax = 20.0, 50.0, 120.0, 150.0
	case "global":
		gp.LatMin, gp.LatMax, gp.LonMin, gp.LonMax = -90.0, 90.0, -180.0, 180.0
		// Lower resolution for global.
		if gp.Resolution < 0.5 {
			gp.Resolution = 0.5
		}
	case "custom":
	default:
		return fmt.Errorf("unknown region: %s (use japan, global, or custom)", gp.Region)
	}
	return nil
}

// Validate checks the parameters.
func (gp *GeneratorParameters) Validate() error {
	if gp.LatMin >= gp.LatMax || gp.LonMin >= gp.LonMax {
		return fmt.Errorf("invalid region bounds: lat [%g, %g], lon [%g, %g]", gp.LatMin, gp.LatMax, gp.LonMin, gp.LonMax)
	}
	if gp.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %g", gp.Resolution)
	}
	if gp.Degree != 1 && gp.Degree != 2 {
		return fmt.Errorf("degree must be 1 or 2, got %d", gp.Degree)
	}
	if p := lgp.Precision(gp.Precision); p != lgp.Complex64 && p != lgp.Complex128 {
		return fmt.Errorf("precision must be %s or %s, got %q", lgp.Complex64, lgp.Complex128, gp.Precision)
	}
	if _, err := domain.ParseTideType(gp.TideType); err != nil {
		return err
	}
	if gp.MaxDistanceM < 0 {
		return fmt.Errorf("max distance must not be negative, got %g", gp.MaxDistanceM)
	}
	if gp.Station == "" {
		return fmt.Errorf("station must be set")
	}
	if gp.Output == "" {
		return fmt.Errorf("output must be set")
	}
	return nil
}

// Print writes the parameters in the form of the input file.
func (gp *GeneratorParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", gp.Title)
	fmt.Fprintf(w, "[%s]\t\t= Region\n", gp.Region)
	fmt.Fprintf(w, "%.2f°-%.2f°N, %.2f°-%.2f°E\t= Bounds\n", gp.LatMin, gp.LatMax, gp.LonMin, gp.LonMax)
	fmt.Fprintf(w, "%8.5f\t\t= Resolution\n", gp.Resolution)
	fmt.Fprintf(w, "[%d]\t\t\t= Degree\n", gp.Degree)
	fmt.Fprintf(w, "[%s]\t\t= Precision\n", gp.Precision)
	fmt.Fprintf(w, "[%s]\t\t\t= TideType\n", gp.TideType)
	fmt.Fprintf(w, "%8.1f\t\t= MaxDistance\n", gp.MaxDistanceM)
	if gp.BBox != nil {
		fmt.Fprintf(w, "%v\t= BBox\n", *gp.BBox)
	}
	fmt.Fprintf(w, "[%s/%s]\t= Station\n", gp.DataDir, gp.Station)
	fmt.Fprintf(w, "[%s]\t= Output\n", gp.Output)
}
