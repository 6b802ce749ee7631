// Package csv provides CSV-based constituent data loading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.ngs.io/tides-lgp/internal/domain"
)

const (
	filePrefix = "mock_"
	fileSuffix = "_constituents.csv"
)

// ConstituentStore provides access to tidal constituent data.
type ConstituentStore struct {
	dataDir string
}

// NewConstituentStore creates a new CSV-based constituent store.
func NewConstituentStore(dataDir string) *ConstituentStore {
	return &ConstituentStore{
		dataDir: dataDir,
	}
}

// LoadForStation loads constituent parameters for a named station.
func (s *ConstituentStore) LoadForStation(stationID string) ([]domain.ConstituentParam, error) {
	if stationID == "" || strings.ContainsAny(stationID, `/\`) {
		return nil, fmt.Errorf("invalid station id %q", stationID)
	}
	filename := filepath.Join(s.dataDir, filePrefix+strings.ToLower(stationID)+fileSuffix)

	//nolint:gosec // G304: File path constructed from dataDir (config) and stationID (validated).
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file for station %s: %w", stationID, err)
	}
	defer func() { _ = file.Close() }()

	constituents, err := ReadConstituents(file)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}
	return constituents, nil
}

// ReadConstituents parses a constituent,amplitude_m,phase_deg table.
func ReadConstituents(r io.Reader) ([]domain.ConstituentParam, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Validate header.
	expectedHeaders := []string{"constituent", "amplitude_m", "phase_deg"}
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", expectedHeaders, header)
	}
	for i, h := range header {
		if h != expectedHeaders[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expectedHeaders[i], h)
		}
	}

	// Read data rows.
	constituents := make([]domain.ConstituentParam, 0)
	seen := make(map[string]struct{})

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		name := strings.TrimSpace(record[0])
		amplitude, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amplitude for constituent %s: %w", name, err)
		}
		if amplitude < 0 {
			return nil, fmt.Errorf("negative amplitude for constituent %s", name)
		}
		phase, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid phase for constituent %s: %w", name, err)
		}

		// Get angular speed from standard constituents.
		speed, ok := domain.GetConstituentSpeed(name)
		if !ok {
			return nil, fmt.Errorf("unknown constituent: %s", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate constituent: %s", name)
		}
		seen[name] = struct{}{}

		constituents = append(constituents, domain.ConstituentParam{
			Name:          name,
			AmplitudeM:    amplitude,
			PhaseDeg:      phase,
			SpeedDegPerHr: speed,
		})
	}

	if len(constituents) == 0 {
		return nil, errors.New("no constituents found in CSV")
	}

	return constituents, nil
}

// ListStations returns available station IDs, sorted.
func (s *ConstituentStore) ListStations() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	stations := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			// Extract station ID.
			stations = append(stations, name[len(filePrefix):len(name)-len(fileSuffix)])
		}
	}
	sort.Strings(stations)

	return stations, nil
}
