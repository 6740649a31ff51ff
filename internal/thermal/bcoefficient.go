package thermal

import "math"

// Insulation describes the unheated space: whether its external envelope
// (nh-e) and the partition towards the heated space (h-nh) are insulated.
type Insulation struct {
	Envelope  bool
	Partition bool
}

var (
	// InsulationBeforeWorks is an uninsulated attic under an uninsulated roof.
	InsulationBeforeWorks = Insulation{Envelope: false, Partition: false}
	// InsulationAfterWorks is the attic floor insulated, roof untouched.
	InsulationAfterWorks = Insulation{Envelope: false, Partition: true}
)

func (i Insulation) column() int {
	switch {
	case !i.Envelope && !i.Partition:
		return 0
	case !i.Envelope && i.Partition:
		return 1
	case i.Envelope && !i.Partition:
		return 2
	default:
		return 3
	}
}

type bBand struct {
	below  float64 // exclusive upper bound of Aiu/Aue
	values [4][2]float64
}

// Temperature reduction coefficient b, DA DB-HE/1 table 7.
// Rows are Aiu/Aue bands, columns the insulation situation
// (nh-e/h-nh: none/none, none/insulated, insulated/none, insulated/insulated),
// each with the values for ventilation case 1 and case 2.
var bTable = []bBand{
	{0.25, [4][2]float64{{0.99, 1.00}, {1.00, 1.00}, {0.94, 0.97}, {0.98, 0.99}}},
	{0.50, [4][2]float64{{0.97, 0.99}, {0.99, 1.00}, {0.85, 0.92}, {0.95, 0.97}}},
	{0.75, [4][2]float64{{0.96, 0.98}, {0.98, 0.99}, {0.77, 0.87}, {0.91, 0.96}}},
	{1.00, [4][2]float64{{0.94, 0.97}, {0.97, 0.99}, {0.70, 0.83}, {0.88, 0.94}}},
	{1.25, [4][2]float64{{0.92, 0.96}, {0.96, 0.98}, {0.65, 0.79}, {0.84, 0.92}}},
	{2.00, [4][2]float64{{0.89, 0.95}, {0.95, 0.98}, {0.56, 0.73}, {0.79, 0.89}}},
	{2.50, [4][2]float64{{0.86, 0.93}, {0.93, 0.97}, {0.48, 0.66}, {0.72, 0.85}}},
	{3.00, [4][2]float64{{0.83, 0.91}, {0.92, 0.96}, {0.43, 0.61}, {0.66, 0.82}}},
	{math.Inf(1), [4][2]float64{{0.81, 0.90}, {0.91, 0.96}, {0.39, 0.57}, {0.62, 0.78}}},
}

// BCoefficient returns b for the attic configuration before or after works.
func BCoefficient(ratio float64, vc VentilationCase, isAfterWork bool) (float64, error) {
	ins := InsulationBeforeWorks
	if isAfterWork {
		ins = InsulationAfterWorks
	}
	return BCoefficientFor(ratio, vc, ins)
}

// BCoefficientFor looks b up for any insulation situation.
func BCoefficientFor(ratio float64, vc VentilationCase, ins Insulation) (float64, error) {
	if !vc.Valid() {
		return 0, ErrUnrecognizedVentilationCase
	}
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return 0, ErrInvalidRatio
	}
	col := ins.column()
	for _, band := range bTable {
		if ratio < band.below {
			return band.values[col][int(vc)-1], nil
		}
	}
	// unreachable: the last band is unbounded
	return 0, ErrInvalidRatio
}
