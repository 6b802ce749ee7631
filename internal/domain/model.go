// Package domain holds the tidal vocabulary shared by the interpolation engine
// and the service layers.
package domain

import (
	"fmt"
	"strings"
)

// Quality classifies an interpolation result.
type Quality int

const (
	// QualityUndefined means no value could be computed at the point.
	QualityUndefined Quality = iota
	// QualityExtrapolated means the point lies outside the mesh but within the
	// allowed extrapolation distance.
	QualityExtrapolated
	// QualityInterpolated means the point lies inside the mesh.
	QualityInterpolated
)

// String returns the lowercase name of the quality.
func (q Quality) String() string {
	switch q {
	case QualityInterpolated:
		return "interpolated"
	case QualityExtrapolated:
		return "extrapolated"
	default:
		return "undefined"
	}
}

// MarshalText encodes the quality as its name.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// TideType identifies what a tidal model describes.
type TideType uint8

const (
	// TideTypeTide is an ocean tide model.
	TideTypeTide TideType = iota
	// TideTypeRadial is a radial (load) tide model.
	TideTypeRadial
)

// String returns the lowercase name of the tide type.
func (t TideType) String() string {
	switch t {
	case TideTypeTide:
		return "tide"
	case TideTypeRadial:
		return "radial"
	default:
		return fmt.Sprintf("TideType(%d)", uint8(t))
	}
}

// Valid reports whether t is a known tide type.
func (t TideType) Valid() bool {
	return t == TideTypeTide || t == TideTypeRadial
}

// ParseTideType parses "tide" or "radial", case-insensitively.
func ParseTideType(s string) (TideType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tide":
		return TideTypeTide, nil
	case "radial":
		return TideTypeRadial, nil
	}
	return 0, fmt.Errorf("unknown tide type %q (use tide or radial)", s)
}
