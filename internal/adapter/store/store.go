package store

import "go.ngs.io/tides-lgp/internal/domain"

// ConstituentLoader is the interface for loading tidal constituent parameters
// used to seed synthetic atlases.
type ConstituentLoader interface {
	// LoadForStation loads parameters for a named station (e.g., "tokyo").
	LoadForStation(stationID string) ([]domain.ConstituentParam, error)

	// ListStations returns the available station IDs.
	ListStations() ([]string, error)
}
