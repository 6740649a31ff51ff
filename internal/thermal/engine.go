package thermal

import "fmt"

// Input is everything the calculation depends on.
type Input struct {
	BeforeLayers []Layer
	AfterLayers  []Layer

	SurfaceArea float64 // m², living surface under the attic
	RoofArea    float64 // m²
	ProjectType string

	VentilationBefore VentilationCase
	VentilationAfter  VentilationCase
	RatioBefore       float64
	RatioAfter        float64

	RsiBefore float64
	RseBefore float64
	RsiAfter  float64
	RseAfter  float64

	ClimateZone ClimateZone
}

type Result struct {
	TotalRBefore       float64
	TotalRAfter        float64
	UpValueBefore      float64
	UpValueAfter       float64
	UValueBefore       float64
	UValueAfter        float64
	BCoefficientBefore float64
	BCoefficientAfter  float64
	ImprovementPercent float64
	MeetsRequirements  bool
}

// SideResult holds the metrics of one side of the project.
type SideResult struct {
	TotalR       float64
	UpValue      float64
	BCoefficient float64
	UValue       float64
}

// Calculate runs the whole pipeline. It is a pure function of in.
func Calculate(in Input) (Result, error) {
	before, err := CalculateSide(in.BeforeLayers, SurfaceSum(in.RsiBefore, in.RseBefore), in.RatioBefore, in.VentilationBefore, false)
	if err != nil {
		return Result{}, fmt.Errorf("before: %w", err)
	}
	after, err := CalculateSide(in.AfterLayers, SurfaceSum(in.RsiAfter, in.RseAfter), in.RatioAfter, in.VentilationAfter, true)
	if err != nil {
		return Result{}, fmt.Errorf("after: %w", err)
	}
	imp, err := EvaluateImprovement(before.UValue, after.UValue)
	if err != nil {
		return Result{}, err
	}
	return Result{
		TotalRBefore:       before.TotalR,
		TotalRAfter:        after.TotalR,
		UpValueBefore:      before.UpValue,
		UpValueAfter:       after.UpValue,
		UValueBefore:       before.UValue,
		UValueAfter:        after.UValue,
		BCoefficientBefore: before.BCoefficient,
		BCoefficientAfter:  after.BCoefficient,
		ImprovementPercent: imp.Percent,
		MeetsRequirements:  imp.MeetsRequirements,
	}, nil
}

// CalculateSide computes R, Up, b and U for a single assembly.
func CalculateSide(layers []Layer, rsiPlusRse, ratio float64, vc VentilationCase, isAfterWork bool) (SideResult, error) {
	totalR, err := TotalResistance(layers, rsiPlusRse)
	if err != nil {
		return SideResult{}, err
	}
	up, err := UpValue(totalR)
	if err != nil {
		return SideResult{}, err
	}
	b, err := BCoefficient(ratio, vc, isAfterWork)
	if err != nil {
		return SideResult{}, err
	}
	return SideResult{
		TotalR:       totalR,
		UpValue:      up,
		BCoefficient: b,
		UValue:       UfValue(up, b),
	}, nil
}
