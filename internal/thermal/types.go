package thermal

import (
	"fmt"
	"strings"
)

// Stage selects one side of the renovation.
type Stage int

const (
	StageUnknown Stage = iota
	StageBefore
	StageAfter
)

func (s Stage) Valid() bool {
	return s == StageBefore || s == StageAfter
}

func (s Stage) String() string {
	switch s {
	case StageBefore:
		return "before"
	case StageAfter:
		return "after"
	default:
		return "unknown"
	}
}

func ParseStage(s string) (Stage, error) {
	switch s {
	case "before":
		return StageBefore, nil
	case "after":
		return StageAfter, nil
	default:
		return StageUnknown, fmt.Errorf("%w: %q", ErrInvalidStage, s)
	}
}

// VentilationCase describes the airtightness of the unheated space.
// Case 1 is a slightly ventilated space (airtightness levels 1 to 3),
// case 2 a very ventilated one (levels 4 and 5).
type VentilationCase int

const (
	VentilationUnknown VentilationCase = iota
	VentilationCase1
	VentilationCase2
)

func (v VentilationCase) Valid() bool {
	return v == VentilationCase1 || v == VentilationCase2
}

func (v VentilationCase) String() string {
	switch v {
	case VentilationCase1:
		return "caso1"
	case VentilationCase2:
		return "caso2"
	default:
		return "unknown"
	}
}

func ParseVentilationCase(s string) (VentilationCase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "caso1", "caso 1", "1":
		return VentilationCase1, nil
	case "caso2", "caso 2", "2":
		return VentilationCase2, nil
	default:
		return VentilationUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedVentilationCase, s)
	}
}

// ClimateZone is a CTE climate code such as "C3" or "α2".
// It is carried for reporting and does not feed the formulas.
type ClimateZone string

var climateZones = map[ClimateZone]struct{}{
	"α1": {}, "α2": {}, "α3": {}, "α4": {},
	"A1": {}, "A2": {}, "A3": {}, "A4": {},
	"B1": {}, "B2": {}, "B3": {}, "B4": {},
	"C1": {}, "C2": {}, "C3": {}, "C4": {},
	"D1": {}, "D2": {}, "D3": {},
	"E1": {},
}

func (z ClimateZone) Valid() bool {
	_, ok := climateZones[z]
	return ok
}

func (z ClimateZone) String() string {
	return string(z)
}

// ParseClimateZone accepts codes in any case; alpha zones may be written
// "α1" or "ALPHA1".
func ParseClimateZone(s string) (ClimateZone, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	code = strings.Replace(code, "Α", "α", 1)
	if rest, ok := strings.CutPrefix(code, "ALPHA"); ok {
		code = "α" + rest
	}
	z := ClimateZone(code)
	if !z.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidClimateZone, s)
	}
	return z, nil
}
