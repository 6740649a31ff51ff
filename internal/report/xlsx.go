package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

var layerHeader = []any{"name", "thickness_mm", "lambda", "r"}

// WriteWorkbook writes the stacks and results as a workbook with the sheets
// Before, After and Results.
func WriteWorkbook(w io.Writer, d Document) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName(f.GetSheetName(0), "Before"); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}
	if err := writeStackSheet(f, "Before", d.Snapshot.Before, headerStyle); err != nil {
		return err
	}
	if _, err := f.NewSheet("After"); err != nil {
		return fmt.Errorf("new sheet After: %w", err)
	}
	if err := writeStackSheet(f, "After", d.Snapshot.After, headerStyle); err != nil {
		return err
	}
	if _, err := f.NewSheet("Results"); err != nil {
		return fmt.Errorf("new sheet Results: %w", err)
	}
	if err := writeResultsSheet(f, d, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeStackSheet(f *excelize.File, sheet string, side thermal.Side, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &layerHeader); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return fmt.Errorf("set col width A: %w", err)
	}
	row := 2
	for _, l := range side.Layers {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{l.Name, l.Thickness, lambdaCell(l), l.R}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, row, err)
		}
		row++
	}
	row++
	for _, kv := range [][2]any{
		{"rsi", side.Rsi},
		{"rse", side.Rse},
		{"ratio", side.Ratio.Value},
		{"ventilation", side.Ventilation.String()},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{kv[0], kv[1]}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, row, err)
		}
		row++
	}
	return nil
}

func writeResultsSheet(f *excelize.File, d Document, headerStyle int) error {
	const sheet = "Results"
	r := d.Result
	rows := [][]any{
		{"metric", "before", "after"},
		{"total_r", r.TotalRBefore, r.TotalRAfter},
		{"up_value", r.UpValueBefore, r.UpValueAfter},
		{"b_coefficient", r.BCoefficientBefore, r.BCoefficientAfter},
		{"u_value", r.UValueBefore, r.UValueAfter},
		{},
		{"improvement_percent", r.ImprovementPercent},
		{"meets_requirements", r.MeetsRequirements},
		{"project_id", d.ProjectID},
		{"project_type", d.Snapshot.ProjectType},
		{"climate_zone", d.Snapshot.ClimateZone.String()},
		{"surface_area", d.Snapshot.SurfaceArea},
		{"roof_area", d.Snapshot.RoofArea},
		{"date", d.Date.Format("2006-01-02")},
	}
	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

// ReadCatalog reads presets from a workbook. Each sheet is one preset named
// after the sheet, with the columns name, thickness_mm, lambda ("-" for air
// gaps), r and an optional stage ("before" or "after", default before).
// A first row starting with "name" is treated as a header.
func ReadCatalog(r io.Reader) (thermal.Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return thermal.Catalog{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	presets := make(map[string]thermal.Preset)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return thermal.Catalog{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var p thermal.Preset
		for i, row := range rows {
			if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
				continue
			}
			if isBlank(row) {
				continue
			}
			l, stage, err := parseCatalogRow(row)
			if err != nil {
				return thermal.Catalog{}, fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
			}
			if stage == thermal.StageAfter {
				p.After = append(p.After, l)
			} else {
				p.Before = append(p.Before, l)
			}
		}
		presets[sheet] = p
	}
	return thermal.NewCatalog(presets)
}

func parseCatalogRow(row []string) (thermal.Layer, thermal.Stage, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	thickness, err := parseNumber(cell(1))
	if err != nil {
		return thermal.Layer{}, thermal.StageUnknown, fmt.Errorf("thickness %q: %w", cell(1), thermal.ErrInvalidThickness)
	}
	var r float64
	if cell(2) == thermal.AirGapLambda {
		if r, err = parseNumber(cell(3)); err != nil {
			return thermal.Layer{}, thermal.StageUnknown, fmt.Errorf("r %q: %w", cell(3), thermal.ErrNegativeLayerResistance)
		}
	}
	l, err := thermal.ParseLayer(cell(0), thickness, cell(2), r)
	if err != nil {
		return thermal.Layer{}, thermal.StageUnknown, err
	}
	stage := thermal.StageBefore
	if s := cell(4); s != "" {
		if stage, err = thermal.ParseStage(strings.ToLower(s)); err != nil {
			return thermal.Layer{}, thermal.StageUnknown, err
		}
	}
	return l, stage, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
