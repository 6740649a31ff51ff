package thermal

import "math"

// RequiredImprovementPercent is the minimum reduction of U needed for the
// works to qualify.
const RequiredImprovementPercent = 30.0

type Improvement struct {
	Percent           float64
	MeetsRequirements bool
}

// EvaluateImprovement compares the adjusted transmittances before and after
// works. A negative percentage means the assembly got worse.
func EvaluateImprovement(uBefore, uAfter float64) (Improvement, error) {
	if uBefore == 0 {
		return Improvement{}, ErrDegenerateBeforeValue
	}
	pct := (uBefore - uAfter) / uBefore * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return Improvement{}, ErrDegenerateBeforeValue
	}
	return Improvement{
		Percent:           pct,
		MeetsRequirements: pct >= RequiredImprovementPercent,
	}, nil
}
