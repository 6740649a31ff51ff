package thermal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultRsi = 0.10 // m²·K/W
	DefaultRse = 0.10 // m²·K/W

	// FallbackSurfaceResistanceSum replaces Rsi+Rse when either value is unusable.
	FallbackSurfaceResistanceSum = 0.17
)

// TotalResistance sums the layer resistances and the surface resistances.
// The order of layers does not matter.
func TotalResistance(layers []Layer, rsiPlusRse float64) (float64, error) {
	total := rsiPlusRse
	for i, l := range layers {
		r, err := l.Resistance()
		if err != nil {
			return 0, fmt.Errorf("layer %d (%s): %w", i, l.Name, err)
		}
		total += r
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, ErrInvalidResistance
	}
	return total, nil
}

// SurfaceSum returns rsi+rse, or FallbackSurfaceResistanceSum when either is
// negative or not a finite number.
func SurfaceSum(rsi, rse float64) float64 {
	if !validSurface(rsi) || !validSurface(rse) {
		return FallbackSurfaceResistanceSum
	}
	return rsi + rse
}

// ParseSurfaceResistance parses a decimal written with either "." or ",".
func ParseSurfaceResistance(s string) (float64, error) {
	v, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !validSurface(v) {
		return 0, fmt.Errorf("surface resistance %q out of range", s)
	}
	return v, nil
}

// FormatSurfaceResistance is the inverse of ParseSurfaceResistance.
func FormatSurfaceResistance(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func validSurface(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func parseDecimal(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
