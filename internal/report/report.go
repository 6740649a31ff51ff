// Package report renders a project and its results as PDF or xlsx, and
// reads preset catalogs from xlsx workbooks.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

// Document is what gets rendered: the project state at one instant.
type Document struct {
	ProjectID string
	Snapshot  thermal.Snapshot
	Result    thermal.Result
	Date      time.Time
}

func NewDocument(projectID string, s thermal.Snapshot, r thermal.Result) Document {
	return Document{ProjectID: projectID, Snapshot: s, Result: r, Date: time.Now()}
}

// FileName returns a download name such as "renotherm-attic-42.pdf".
func (d Document) FileName(ext string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, d.ProjectID)
	if id == "" {
		id = "project"
	}
	return fmt.Sprintf("renotherm-%s.%s", id, ext)
}

func verdict(r thermal.Result) string {
	if r.MeetsRequirements {
		return fmt.Sprintf("meets the %.0f%% reduction requirement", thermal.RequiredImprovementPercent)
	}
	return fmt.Sprintf("does not meet the %.0f%% reduction requirement", thermal.RequiredImprovementPercent)
}

func lambdaCell(l thermal.Layer) string {
	if l.Kind == thermal.LayerAirGap {
		return thermal.AirGapLambda
	}
	return fmt.Sprintf("%.3f", l.Lambda)
}
