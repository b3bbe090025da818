package pdfexport

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

type subModuleRow struct {
	module    models.Module
	subModule models.SubModule
	score     *models.SubModuleScore
}

// bulletinRows walks modules and sub-modules in their stored order
func bulletinRows(b *models.Bulletin) []subModuleRow {
	scores := make(map[uuid.UUID]*models.SubModuleScore, len(b.Scores))
	for i := range b.Scores {
		scores[b.Scores[i].SubModuleID] = &b.Scores[i]
	}

	var rows []subModuleRow
	for _, m := range b.Modules {
		for _, sm := range m.SubModules {
			rows = append(rows, subModuleRow{module: m, subModule: sm, score: scores[sm.ID]})
		}
	}
	return rows
}

func candidateHeader(d *document, c *models.Candidate) {
	d.field("Candidate", c.Name)
	d.field("Server ID", dashIfEmpty(c.ServerID))
	if len(c.ClassIDs) > 0 {
		d.field("Classes", strings.Join(c.ClassIDs, ", "))
	}
	status := "In training"
	if c.IsCertified {
		status = "Certified on " + formatDate(c.CertificationDate)
	}
	d.field("Status", status)
}

func scoreCell(row subModuleRow) string {
	if row.score == nil {
		return "not graded"
	}
	return formatScore(row.score.Score, row.subModule.MaxScore)
}

// Bulletin renders a candidate's training bulletin: every sub-module score,
// the instructors' appreciations and the overall result
func (r *Renderer) Bulletin(b *models.Bulletin) ([]byte, error) {
	d := r.newDocument("Training bulletin")

	d.heading("Training bulletin")
	candidateHeader(d, &b.Candidate)

	appreciations := make(map[uuid.UUID]string, len(b.Appreciations))
	for _, a := range b.Appreciations {
		appreciations[a.SubModuleID] = a.Appreciation
	}

	rows := bulletinRows(b)
	var current uuid.UUID
	var table [][]string
	flush := func() {
		if table != nil {
			d.table([]string{"Sub-module", "Score", "Appreciation"}, []float64{0.35, 0.15, 0.5}, table)
			table = nil
		}
	}
	for _, row := range rows {
		if row.module.ID != current {
			flush()
			current = row.module.ID
			title := row.module.Name
			if row.module.InstructorInCharge != nil && *row.module.InstructorInCharge != "" {
				title += " (" + *row.module.InstructorInCharge + ")"
			}
			d.section(title)
			table = [][]string{}
		}
		name := row.subModule.Name
		if row.subModule.IsOptional {
			name += " (optional)"
		}
		appreciation := appreciations[row.subModule.ID]
		if appreciation == "" {
			appreciation = "-"
		}
		table = append(table, []string{name, scoreCell(row), appreciation})
	}
	flush()

	d.section("Overall result")
	d.field("Total", formatScore(b.Overall.Score, b.Overall.MaxScore))
	d.field("Percentage", fmt.Sprintf("%d%%", b.Overall.Percentage))

	return d.output()
}

// ModuleResults renders the per-module score summary of one candidate
func (r *Renderer) ModuleResults(b *models.Bulletin) ([]byte, error) {
	d := r.newDocument("Module results")

	d.heading("Module results - " + b.Candidate.Name)
	candidateHeader(d, &b.Candidate)
	d.pdf.Ln(2)

	type moduleTotal struct {
		name          string
		score, max    float64
		graded, total int
	}
	var totals []moduleTotal
	index := map[uuid.UUID]int{}
	for _, row := range bulletinRows(b) {
		i, ok := index[row.module.ID]
		if !ok {
			i = len(totals)
			index[row.module.ID] = i
			totals = append(totals, moduleTotal{name: row.module.Name})
		}
		totals[i].max += row.subModule.MaxScore
		totals[i].total++
		if row.score != nil {
			totals[i].score += row.score.Score
			totals[i].graded++
		}
	}

	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			t.name,
			fmt.Sprintf("%d / %d", t.graded, t.total),
			formatScore(t.score, t.max),
		})
	}
	d.table([]string{"Module", "Graded sub-modules", "Score"}, []float64{0.5, 0.25, 0.25}, rows)

	d.section("Overall result")
	d.field("Total", formatScore(b.Overall.Score, b.Overall.MaxScore))
	d.field("Percentage", fmt.Sprintf("%d%%", b.Overall.Percentage))

	return d.output()
}
