package thermal

import "math"

// UpValue is the unadjusted transmittance 1/R in W/m²·K.
func UpValue(totalR float64) (float64, error) {
	if !(totalR > 0) || math.IsInf(totalR, 0) {
		return 0, ErrInvalidResistance
	}
	up := 1 / totalR
	if math.IsInf(up, 0) {
		return 0, ErrInvalidResistance
	}
	return up, nil
}

// UfValue corrects Up with the b-coefficient of the adjacent unheated space.
func UfValue(up, b float64) float64 {
	return up * b
}
