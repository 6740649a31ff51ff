package thermal

import (
	"fmt"
	"math"
	"strings"
)

// AirGapLambda is the legacy lambda value marking a layer without conductivity.
const AirGapLambda = "-"

// MaxLambda is the loose physical bound accepted for conductive layers.
const MaxLambda = 0.5

// LayerKind discriminates how a layer contributes its resistance.
type LayerKind int

const (
	LayerUnknown LayerKind = iota
	LayerConductive
	LayerAirGap
)

func (k LayerKind) Valid() bool {
	return k == LayerConductive || k == LayerAirGap
}

func (k LayerKind) String() string {
	switch k {
	case LayerConductive:
		return "conductive"
	case LayerAirGap:
		return "air_gap"
	default:
		return "unknown"
	}
}

func ParseLayerKind(s string) (LayerKind, error) {
	switch s {
	case "conductive":
		return LayerConductive, nil
	case "air_gap":
		return LayerAirGap, nil
	default:
		return LayerUnknown, fmt.Errorf("%w: %q", ErrInvalidLayerKind, s)
	}
}

// Layer is one material of a wall or roof assembly.
//
// Conductive layers derive their resistance from Thickness and Lambda; R only
// caches that value for display. Air gaps have no conductivity and use R as a
// fixed resistance.
type Layer struct {
	ID        string
	Name      string
	Thickness float64 // mm
	Kind      LayerKind
	Lambda    float64 // W/m·K
	R         float64 // m²·K/W
	IsNew     bool    // UI marker only
}

func Conductive(name string, thicknessMM, lambda float64) Layer {
	l := Layer{Name: name, Thickness: thicknessMM, Kind: LayerConductive, Lambda: lambda}
	if lambda > 0 {
		l.R = thicknessMM / 1000 / lambda
	}
	return l
}

func AirGap(name string, thicknessMM, r float64) Layer {
	return Layer{Name: name, Thickness: thicknessMM, Kind: LayerAirGap, R: r}
}

// ParseLayer builds a layer from its legacy representation, where lambda is
// either a decimal or "-" for an air gap. r is only read for air gaps.
func ParseLayer(name string, thicknessMM float64, lambda string, r float64) (Layer, error) {
	lambda = strings.TrimSpace(lambda)
	if lambda == AirGapLambda {
		return AirGap(name, thicknessMM, r), nil
	}
	v, err := parseDecimal(lambda)
	if err != nil {
		return Layer{}, fmt.Errorf("layer %q: lambda %q: %w", name, lambda, ErrInvalidConductivity)
	}
	return Conductive(name, thicknessMM, v), nil
}

// LambdaString returns the legacy lambda representation.
func (l Layer) LambdaString() string {
	if l.Kind == LayerAirGap {
		return AirGapLambda
	}
	return fmt.Sprintf("%g", l.Lambda)
}

// Validate enforces the entry-point bounds on a layer.
func (l Layer) Validate() error {
	if !(l.Thickness > 0) || math.IsInf(l.Thickness, 0) {
		return ErrInvalidThickness
	}
	switch l.Kind {
	case LayerConductive:
		if !(l.Lambda > 0) {
			return ErrInvalidConductivity
		}
		if l.Lambda > MaxLambda {
			return ErrConductivityOutOfRange
		}
	case LayerAirGap:
		if !(l.R >= 0) || math.IsInf(l.R, 0) {
			return ErrNegativeLayerResistance
		}
	default:
		return ErrInvalidLayerKind
	}
	return nil
}

// Resistance returns the layer contribution in m²·K/W.
func (l Layer) Resistance() (float64, error) {
	switch l.Kind {
	case LayerConductive:
		if !(l.Lambda > 0) {
			return 0, ErrInvalidConductivity
		}
		r := l.Thickness / 1000 / l.Lambda
		if !(r >= 0) || math.IsInf(r, 0) {
			return 0, ErrInvalidThickness
		}
		return r, nil
	case LayerAirGap:
		if !(l.R >= 0) || math.IsInf(l.R, 0) {
			return 0, ErrNegativeLayerResistance
		}
		return l.R, nil
	default:
		return 0, ErrInvalidLayerKind
	}
}

// normalize recomputes the cached R of conductive layers.
func (l Layer) normalize() Layer {
	if l.Kind == LayerConductive && l.Lambda > 0 {
		l.R = l.Thickness / 1000 / l.Lambda
	}
	return l
}

func cloneLayers(in []Layer) []Layer {
	if in == nil {
		return nil
	}
	out := make([]Layer, len(in))
	copy(out, in)
	return out
}
