package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

// SweepParams describes the base assembly and the insulation added on top of
// it, from MinThickness to MaxThickness in Step millimetres.
type SweepParams struct {
	Base         []thermal.Layer
	Insulation   string
	Lambda       float64
	MinThickness float64
	MaxThickness float64
	Step         float64
	SurfaceArea  float64
	RoofArea     float64
	Ventilation  thermal.VentilationCase
}

func SweepInsulation(p SweepParams, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"ThicknessMM", "TotalRAfter", "UValueBefore", "UValueAfter", "ImprovementPercent", "MeetsRequirements"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	ratio, err := thermal.DeriveRatio(p.SurfaceArea, p.RoofArea)
	if err != nil {
		return err
	}

	for t := p.MinThickness; t <= p.MaxThickness; t += p.Step {
		after := append(append([]thermal.Layer{}, p.Base...), thermal.Conductive(p.Insulation, t, p.Lambda))

		res, err := thermal.Calculate(thermal.Input{
			BeforeLayers:      p.Base,
			AfterLayers:       after,
			SurfaceArea:       p.SurfaceArea,
			RoofArea:          p.RoofArea,
			VentilationBefore: p.Ventilation,
			VentilationAfter:  p.Ventilation,
			RatioBefore:       ratio,
			RatioAfter:        ratio,
			RsiBefore:         thermal.DefaultRsi,
			RseBefore:         thermal.DefaultRse,
			RsiAfter:          thermal.DefaultRsi,
			RseAfter:          thermal.DefaultRse,
		})
		if err != nil {
			return fmt.Errorf("thickness %.0f mm: %w", t, err)
		}

		if err := writer.Write([]string{
			fmt.Sprintf("%.0f", t),
			fmt.Sprintf("%.3f", res.TotalRAfter),
			fmt.Sprintf("%.3f", res.UValueBefore),
			fmt.Sprintf("%.3f", res.UValueAfter),
			fmt.Sprintf("%.2f", res.ImprovementPercent),
			fmt.Sprintf("%t", res.MeetsRequirements),
		}); err != nil {
			return fmt.Errorf("failed to write CSV record: %v", err)
		}
	}

	return nil
}

func main() {
	out := flag.String("o", "insulation_sweep.csv", "output CSV file")
	lambda := flag.Float64("lambda", 0.040, "insulation conductivity in W/m·K")
	flag.Parse()

	params := SweepParams{
		Base: []thermal.Layer{
			thermal.Conductive("Gypsum plaster", 15, 0.30),
			thermal.Conductive("Hollow ceramic block slab", 200, 0.45),
			thermal.AirGap("Attic air", 30, 0.16),
		},
		Insulation:   "Blown mineral wool",
		Lambda:       *lambda,
		MinThickness: 20,
		MaxThickness: 300,
		Step:         20,
		SurfaceArea:  70,
		RoofArea:     85,
		Ventilation:  thermal.VentilationCase1,
	}
	if err := SweepInsulation(params, *out); err != nil {
		log.Fatal(err)
	}
}
