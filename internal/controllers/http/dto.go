package httpctrl

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

type projectDTO struct {
	ProjectID    string      `json:"project_id"`
	ProjectType  string      `json:"project_type"`
	ClimateZone  string      `json:"climate_zone"`
	SurfaceArea  float64     `json:"surface_area"`
	RoofArea     float64     `json:"roof_area"`
	Before       sideDTO     `json:"before"`
	After        sideDTO     `json:"after"`
	Results      *resultsDTO `json:"results,omitempty"`
	ResultsError string      `json:"results_error,omitempty"`
	Warning      string      `json:"warning,omitempty"`
}

type sideDTO struct {
	Layers          []layerDTO `json:"layers"`
	Ratio           float64    `json:"ratio"`
	RatioOverridden bool       `json:"ratio_overridden"`
	Ventilation     string     `json:"ventilation"`
	Rsi             string     `json:"rsi"`
	Rse             string     `json:"rse"`
}

type layerDTO struct {
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name"`
	Thickness float64     `json:"thickness"`
	Lambda    lambdaValue `json:"lambda"`
	R         float64     `json:"r"`
	IsNew     bool        `json:"is_new,omitempty"`
}

type resultsDTO struct {
	TotalRBefore       float64 `json:"total_r_before"`
	TotalRAfter        float64 `json:"total_r_after"`
	UpValueBefore      float64 `json:"up_value_before"`
	UpValueAfter       float64 `json:"up_value_after"`
	UValueBefore       float64 `json:"u_value_before"`
	UValueAfter        float64 `json:"u_value_after"`
	BCoefficientBefore float64 `json:"b_coefficient_before"`
	BCoefficientAfter  float64 `json:"b_coefficient_after"`
	ImprovementPercent float64 `json:"improvement_percent"`
	MeetsRequirements  bool    `json:"meets_requirements"`
}

func toProjectDTO(s thermal.Snapshot) projectDTO {
	return projectDTO{
		ProjectType: s.ProjectType,
		ClimateZone: s.ClimateZone.String(),
		SurfaceArea: s.SurfaceArea,
		RoofArea:    s.RoofArea,
		Before:      toSideDTO(s.Before),
		After:       toSideDTO(s.After),
	}
}

func toSideDTO(s thermal.Side) sideDTO {
	layers := make([]layerDTO, 0, len(s.Layers))
	for _, l := range s.Layers {
		layers = append(layers, toLayerDTO(l))
	}
	return sideDTO{
		Layers:          layers,
		Ratio:           s.Ratio.Value,
		RatioOverridden: s.Ratio.Overridden,
		Ventilation:     s.Ventilation.String(),
		Rsi:             thermal.FormatSurfaceResistance(s.Rsi),
		Rse:             thermal.FormatSurfaceResistance(s.Rse),
	}
}

func toLayerDTO(l thermal.Layer) layerDTO {
	return layerDTO{
		ID:        l.ID,
		Name:      l.Name,
		Thickness: l.Thickness,
		Lambda:    lambdaValue(l.LambdaString()),
		R:         l.R,
		IsNew:     l.IsNew,
	}
}

func (d layerDTO) toLayer() (thermal.Layer, error) {
	if d.Lambda == "" {
		return thermal.Layer{}, errors.New("missing field 'lambda'")
	}
	l, err := thermal.ParseLayer(d.Name, d.Thickness, string(d.Lambda), d.R)
	if err != nil {
		return thermal.Layer{}, err
	}
	return l, l.Validate()
}

func toResultsDTO(r thermal.Result) resultsDTO {
	return resultsDTO{
		TotalRBefore:       r.TotalRBefore,
		TotalRAfter:        r.TotalRAfter,
		UpValueBefore:      r.UpValueBefore,
		UpValueAfter:       r.UpValueAfter,
		UValueBefore:       r.UValueBefore,
		UValueAfter:        r.UValueAfter,
		BCoefficientBefore: r.BCoefficientBefore,
		BCoefficientAfter:  r.BCoefficientAfter,
		ImprovementPercent: r.ImprovementPercent,
		MeetsRequirements:  r.MeetsRequirements,
	}
}

// lambdaValue is a conductivity in JSON: a number, a decimal string, or "-"
// for an air gap.
type lambdaValue string

func (l *lambdaValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = lambdaValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("lambda must be a number or %q", thermal.AirGapLambda)
	}
	*l = lambdaValue(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func (l lambdaValue) MarshalJSON() ([]byte, error) {
	if v, err := strconv.ParseFloat(string(l), 64); err == nil {
		return json.Marshal(v)
	}
	return json.Marshal(string(l))
}

// decimal accepts a JSON number or a string using "." or "," as separator.
type decimal float64

func (d *decimal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := thermal.ParseSurfaceResistance(s)
		if err != nil {
			return err
		}
		*d = decimal(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = decimal(f)
	return nil
}
