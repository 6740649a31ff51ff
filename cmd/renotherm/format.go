package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

func printResult(w io.Writer, id string, s thermal.Snapshot, r thermal.Result) {
	fmt.Fprintf(w, "Project %s (%s, zone %s)\n", id, s.ProjectType, s.ClimateZone)
	fmt.Fprintf(w, "  surface %.2f m², roof %.2f m²\n\n", s.SurfaceArea, s.RoofArea)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tR (m²K/W)\tUp (W/m²K)\tb\tU (W/m²K)")
	fmt.Fprintf(tw, "before\t%.3f\t%.3f\t%.2f\t%.3f\n", r.TotalRBefore, r.UpValueBefore, r.BCoefficientBefore, r.UValueBefore)
	fmt.Fprintf(tw, "after\t%.3f\t%.3f\t%.2f\t%.3f\n", r.TotalRAfter, r.UpValueAfter, r.BCoefficientAfter, r.UValueAfter)
	_ = tw.Flush()

	verdict := "FAIL"
	if r.MeetsRequirements {
		verdict = "PASS"
	}
	fmt.Fprintf(w, "\nImprovement: %.2f%% (required %.0f%%) %s\n", r.ImprovementPercent, thermal.RequiredImprovementPercent, verdict)
}

type resultJSON struct {
	ProjectID          string  `json:"project_id"`
	TotalRBefore       float64 `json:"total_r_before"`
	TotalRAfter        float64 `json:"total_r_after"`
	UpValueBefore      float64 `json:"up_value_before"`
	UpValueAfter       float64 `json:"up_value_after"`
	BCoefficientBefore float64 `json:"b_coefficient_before"`
	BCoefficientAfter  float64 `json:"b_coefficient_after"`
	UValueBefore       float64 `json:"u_value_before"`
	UValueAfter        float64 `json:"u_value_after"`
	ImprovementPercent float64 `json:"improvement_percent"`
	MeetsRequirements  bool    `json:"meets_requirements"`
}

func printResultJSON(w io.Writer, id string, r thermal.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultJSON{
		ProjectID:          id,
		TotalRBefore:       r.TotalRBefore,
		TotalRAfter:        r.TotalRAfter,
		UpValueBefore:      r.UpValueBefore,
		UpValueAfter:       r.UpValueAfter,
		BCoefficientBefore: r.BCoefficientBefore,
		BCoefficientAfter:  r.BCoefficientAfter,
		UValueBefore:       r.UValueBefore,
		UValueAfter:        r.UValueAfter,
		ImprovementPercent: r.ImprovementPercent,
		MeetsRequirements:  r.MeetsRequirements,
	})
}

func printPresets(w io.Writer, cat thermal.Catalog) error {
	for _, key := range cat.Keys() {
		p, err := cat.Preset(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", key)
		for _, stack := range []struct {
			name   string
			layers []thermal.Layer
		}{{"before", p.Before}, {"after", p.After}} {
			fmt.Fprintf(w, "  %s:\n", stack.name)
			for _, l := range stack.layers {
				fmt.Fprintf(w, "    %-32s %6.1f mm  lambda %-6s R %.3f\n", l.Name, l.Thickness, l.LambdaString(), l.R)
			}
		}
	}
	return nil
}
