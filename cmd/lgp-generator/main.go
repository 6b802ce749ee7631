// Package main provides the synthetic LGP atlas generator.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"go.ngs.io/tides-lgp/internal/adapter/store"
	"go.ngs.io/tides-lgp/internal/adapter/store/csv"
	"go.ngs.io/tides-lgp/internal/config"
	"go.ngs.io/tides-lgp/internal/domain"
	"go.ngs.io/tides-lgp/internal/geometry"
	"go.ngs.io/tides-lgp/internal/lgp"
	"go.ngs.io/tides-lgp/internal/synth"
)

var rootCmd = &cobra.Command{
	Use:   "lgp-generator",
	Short: "Generates synthetic LGP tidal atlases",
	Long: `Generates a synthetic LGP tidal atlas over a regular regional mesh,
seeded with the constituents of a reference station, and writes the
serialized model loaded by the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("inputParametersFile")
		output, _ := cmd.Flags().GetString("out")

		gp, err := readParameters(inputFile)
		if err != nil {
			return err
		}
		if output != "" {
			gp.Output = output
		}
		gp.Print(os.Stdout)
		return generate(gp, csv.NewConstituentStore(gp.DataDir))
	},
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Lists the stations available to seed an atlas",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("dataDir")
		stations, err := csv.NewConstituentStore(dataDir).ListStations()
		if err != nil {
			return err
		}
		for _, s := range stations {
			fmt.Println(s)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for generator parameters like:"+config.ExampleGeneratorFile)
	rootCmd.Flags().StringP("out", "o", "", "output model file (overrides Output)")
	stationsCmd.Flags().StringP("dataDir", "d", "./data", "directory holding mock_<station>_constituents.csv files")
	rootCmd.AddCommand(stationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readParameters(path string) (*config.GeneratorParameters, error) {
	if path == "" {
		log.Printf("No input parameters file, using the defaults")
		gp := config.DefaultGeneratorParameters()
		if err := gp.Validate(); err != nil {
			return nil, err
		}
		return &gp, nil
	}
	return config.ReadGeneratorParameters(path)
}

func generate(gp *config.GeneratorParameters, loader store.ConstituentLoader) error {
	seeds, err := loader.LoadForStation(gp.Station)
	if err != nil {
		return fmt.Errorf("failed to load seed constituents: %w", err)
	}
	log.Printf("Loaded %d constituents for station %s", len(seeds), gp.Station)

	tideType, err := domain.ParseTideType(gp.TideType)
	if err != nil {
		return err
	}
	opts := synth.Options{
		Grid: synth.RegionalGrid{
			LatMin:     gp.LatMin,
			LatMax:     gp.LatMax,
			LonMin:     gp.LonMin,
			LonMax:     gp.LonMax,
			Resolution: gp.Resolution,
		},
		Degree:      gp.Degree,
		Precision:   lgp.Precision(gp.Precision),
		TideType:    tideType,
		MaxDistance: gp.MaxDistanceM,
		Reference:   geometry.Point{Lon: gp.ReferenceLon, Lat: gp.ReferenceLat},
	}
	if gp.BBox != nil {
		box := geometry.NewBox(gp.BBox.LonMin, gp.BBox.LatMin, gp.BBox.LonMax, gp.BBox.LatMax)
		opts.BBox = &box
	}

	nLat, nLon := opts.Grid.Size()
	log.Printf("Generating LGP%d atlas for region: %s", gp.Degree, gp.Region)
	log.Printf("Grid: %.1f°-%.1f°N, %.1f°-%.1f°E, resolution: %.2f° (%d × %d nodes)",
		gp.LatMin, gp.LatMax, gp.LonMin, gp.LonMax, gp.Resolution, nLat, nLon)

	model, err := synth.Build(opts, seeds)
	if err != nil {
		return fmt.Errorf("failed to build model: %w", err)
	}
	if n := len(model.SelectedIndices()); n > 0 {
		log.Printf("Bounding box keeps %d degrees of freedom", n)
	}

	data, err := model.GetState()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(gp.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(gp.Output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}

	log.Printf("=== Generation Complete ===")
	log.Printf("Model written to: %s (%.1f MB)", gp.Output, float64(len(data))/1024/1024)
	log.Printf("Serve it with MODEL_PATH=%s MODEL_DEGREE=%d MODEL_PRECISION=%s", gp.Output, gp.Degree, gp.Precision)
	return nil
}
