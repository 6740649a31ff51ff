package thermal

import "math"

// DefaultRatio is used when no surfaces are known yet.
const DefaultRatio = 1.0

// Ratio is the Aiu/Aue area ratio of one side of the project. A derived
// ratio follows the surfaces; an overridden one was typed in by the user.
type Ratio struct {
	Value      float64
	Overridden bool
}

func Derived(v float64) Ratio {
	return Ratio{Value: v}
}

func Override(v float64) Ratio {
	return Ratio{Value: v, Overridden: true}
}

// DeriveRatio returns living/roof. Callers keep their previous ratio on error.
func DeriveRatio(living, roof float64) (float64, error) {
	if !finite(living) || !finite(roof) || living <= 0 || roof <= 0 {
		return 0, ErrInvalidRatioInputs
	}
	return living / roof, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
