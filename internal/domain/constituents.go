package domain

import (
	"math"
	"math/cmplx"
	"sort"
)

// Constituent represents a tidal constituent with its angular speed.
type Constituent struct {
	Name          string  // E.g., "M2", "S2", "K1", "O1".
	SpeedDegPerHr float64 // Angular speed in degrees per hour.
}

// ConstituentParam holds the amplitude and phase for a specific location.
type ConstituentParam struct {
	Name          string
	AmplitudeM    float64 // Amplitude in meters.
	PhaseDeg      float64 // Phase in degrees.
	SpeedDegPerHr float64 // Angular speed in degrees per hour.
}

// ConstituentValue is the complex harmonic value of a constituent at a point.
type ConstituentValue struct {
	Name  string
	Value complex128
}

// Defined reports whether the value holds a number.
func (v ConstituentValue) Defined() bool {
	return !cmplx.IsNaN(v.Value)
}

// Param converts the complex value into amplitude and phase. The phase is the
// argument of the complex value in degrees, in [0, 360).
func (v ConstituentValue) Param() ConstituentParam {
	speed, _ := GetConstituentSpeed(v.Name)
	phase := Rad2Deg(cmplx.Phase(v.Value))
	if phase < 0 {
		phase += 360.0
	}
	return ConstituentParam{
		Name:          v.Name,
		AmplitudeM:    cmplx.Abs(v.Value),
		PhaseDeg:      phase,
		SpeedDegPerHr: speed,
	}
}

// FromParam converts amplitude and phase into a complex harmonic value.
func FromParam(p ConstituentParam) complex128 {
	return cmplx.Rect(p.AmplitudeM, Deg2Rad(p.PhaseDeg))
}

// StandardConstituents contains tidal constituents with their angular speeds (deg/hour).
// Reference: https://www.pmel.noaa.gov/pubs/PDF/park2589/park2589.pdf
var StandardConstituents = map[string]float64{
	// Principal lunar semidiurnal.
	"M2": 28.9841042,
	// Principal solar semidiurnal.
	"S2": 30.0000000,
	// Larger lunar elliptic semidiurnal.
	"N2": 28.4397295,
	// Lunisolar semidiurnal.
	"K2": 30.0821373,
	// Lunar elliptic semidiurnal second order.
	"2N2": 27.8953548,
	// Variational.
	"Mu2": 27.9682084,
	// Larger lunar evectional.
	"Nu2": 28.5125831,
	// Smaller lunar elliptic semidiurnal.
	"L2": 29.5284789,
	// Larger solar elliptic.
	"T2": 29.9589333,

	// Lunar diurnal.
	"K1": 15.0410686,
	// Lunar diurnal.
	"O1": 13.9430356,
	// Solar diurnal.
	"P1": 14.9589314,
	// Solar diurnal.
	"Q1": 13.3986609,
	// Smaller lunar elliptic diurnal.
	"J1": 15.5854433,

	// Shallow water constituents.
	"M4":  57.9682084,
	"M6":  86.9523127,
	"MK3": 44.0251729,
	"S4":  60.0000000,
	"MN4": 57.4238337,
	"MS4": 58.9841042,
	"N4":  56.8794590,
	"M3":  43.4761563,
	"M8":  115.9364166,

	// Long period.
	"Mf":  1.0980331,
	"Mm":  0.5443747,
	"MSf": 1.0158958,
	"Ssa": 0.0821373,
	"Sa":  0.0410686,
}

// GetConstituentSpeed returns the angular speed for a given constituent name.
func GetConstituentSpeed(name string) (float64, bool) {
	speed, ok := StandardConstituents[name]
	return speed, ok
}

// GetAllConstituents returns all standard constituents sorted by name.
func GetAllConstituents() []Constituent {
	constituents := make([]Constituent, 0, len(StandardConstituents))
	for name, speed := range StandardConstituents {
		constituents = append(constituents, Constituent{
			Name:          name,
			SpeedDegPerHr: speed,
		})
	}
	sort.Slice(constituents, func(i, j int) bool {
		return constituents[i].Name < constituents[j].Name
	})
	return constituents
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
