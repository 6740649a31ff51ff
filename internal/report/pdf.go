package report

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

// WritePDF writes a one page summary of the project.
func WritePDF(w io.Writer, d Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Thermal transmittance report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Thermal transmittance report")
	pdf.Ln(12)

	s := d.Snapshot
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Project: %s", d.ProjectID),
		fmt.Sprintf("Type: %s", s.ProjectType),
		fmt.Sprintf("Climate zone: %s", s.ClimateZone),
		fmt.Sprintf("Living surface: %.2f m2   Roof surface: %.2f m2", s.SurfaceArea, s.RoofArea),
		fmt.Sprintf("Date: %s", d.Date.Format("2006-01-02")),
	} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	writeStack(pdf, tr, "Before works", s.Before)
	writeStack(pdf, tr, "After works", s.After)

	r := d.Result
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Results")
	pdf.Ln(9)

	header := []string{"", "Before", "After"}
	widths := []float64{60, 40, 40}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][3]string{
		{"R total (m2K/W)", f3(r.TotalRBefore), f3(r.TotalRAfter)},
		{"Up (W/m2K)", f3(r.UpValueBefore), f3(r.UpValueAfter)},
		{"b", f2(r.BCoefficientBefore), f2(r.BCoefficientAfter)},
		{"U (W/m2K)", f3(r.UValueBefore), f3(r.UValueAfter)},
	} {
		pdf.CellFormat(widths[0], 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, row[1], "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, row[2], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("Improvement: %.2f%%, the project %s.", r.ImprovementPercent, verdict(r)), "", "L", false)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeStack(pdf *gofpdf.Fpdf, tr func(string) string, title string, side thermal.Side) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("%s (%s, ratio %.2f)", title, side.Ventilation, side.Ratio.Value))
	pdf.Ln(9)

	header := []string{"Material", "e (mm)", "lambda", "R"}
	widths := []float64{80, 25, 25, 25}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range side.Layers {
		pdf.CellFormat(widths[0], 6, tr(l.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.0f", l.Thickness), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, lambdaCell(l), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, f3(l.R), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 6, "Rsi + Rse", "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[3], 6, f2(thermal.SurfaceSum(side.Rsi, side.Rse)), "1", 0, "R", false, 0, "")
	pdf.Ln(10)
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
func f3(v float64) string { return fmt.Sprintf("%.3f", v) }
