package mqttctrl

import (
	"errors"
	"strconv"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

type snapshotDTO struct {
	ProjectType string  `json:"project_type"`
	ClimateZone string  `json:"climate_zone"`
	SurfaceArea float64 `json:"surface_area"`
	RoofArea    float64 `json:"roof_area"`
	Before      sideDTO `json:"before"`
	After       sideDTO `json:"after"`
}

type sideDTO struct {
	Layers          []layerReq `json:"layers"`
	Ratio           float64    `json:"ratio"`
	RatioOverridden bool       `json:"ratio_overridden"`
	Ventilation     string     `json:"ventilation"`
	Rsi             float64    `json:"rsi"`
	Rse             float64    `json:"rse"`
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

// layerReq carries lambda as a number or "-" for an air gap.
type layerReq struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Thickness float64 `json:"thickness"`
	Lambda    any     `json:"lambda"`
	R         float64 `json:"r,omitempty"`
}

type surfaceResistancesReq struct {
	Rsi float64 `json:"rsi"`
	Rse float64 `json:"rse"`
}

func (l layerReq) toLayer() (thermal.Layer, error) {
	var lambda string
	switch v := l.Lambda.(type) {
	case string:
		lambda = v
	case float64:
		lambda = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return thermal.Layer{}, errors.New("lambda must be a number or \"-\"")
	}
	layer, err := thermal.ParseLayer(l.Name, l.Thickness, lambda, l.R)
	if err != nil {
		return thermal.Layer{}, err
	}
	return layer, layer.Validate()
}

func toSnapshotDTO(s thermal.Snapshot) snapshotDTO {
	return snapshotDTO{
		ProjectType: s.ProjectType,
		ClimateZone: s.ClimateZone.String(),
		SurfaceArea: s.SurfaceArea,
		RoofArea:    s.RoofArea,
		Before:      toSideDTO(s.Before),
		After:       toSideDTO(s.After),
	}
}

func toSideDTO(s thermal.Side) sideDTO {
	layers := make([]layerReq, 0, len(s.Layers))
	for _, l := range s.Layers {
		var lambda any = l.Lambda
		if l.Kind == thermal.LayerAirGap {
			lambda = thermal.AirGapLambda
		}
		layers = append(layers, layerReq{ID: l.ID, Name: l.Name, Thickness: l.Thickness, Lambda: lambda, R: l.R})
	}
	return sideDTO{
		Layers:          layers,
		Ratio:           s.Ratio.Value,
		RatioOverridden: s.Ratio.Overridden,
		Ventilation:     s.Ventilation.String(),
		Rsi:             s.Rsi,
		Rse:             s.Rse,
	}
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
