package pdfexport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"academy-portal/internal/models"
)

// AgentList renders the personnel roster. agencies resolves agency ids to
// abbreviations and may be nil.
func (r *Renderer) AgentList(agents []models.PoliceAgent, agencies map[uuid.UUID]string) ([]byte, error) {
	d := r.newDocument("Personnel")

	d.heading("Personnel roster")
	d.field("Agents", strconv.Itoa(len(agents)))
	d.pdf.Ln(2)

	rows := make([][]string, 0, len(agents))
	for _, a := range agents {
		agency := "-"
		if a.AgencyID != nil {
			if name, ok := agencies[*a.AgencyID]; ok {
				agency = name
			}
		}
		rows = append(rows, []string{
			a.BadgeNumber,
			a.Name,
			agency,
			string(a.Status),
			formatDate(a.HireDate),
		})
	}
	d.table(
		[]string{"Badge", "Name", "Agency", "Status", "Hired"},
		[]float64{0.15, 0.35, 0.18, 0.16, 0.16},
		rows,
	)

	return d.output()
}

// Dossier renders an agent's file: identity, specialties, trainings and
// disciplinary records. Reasons must already be unsealed.
func (r *Renderer) Dossier(dossier *models.AgentDossier) ([]byte, error) {
	d := r.newDocument("Agent dossier")
	a := dossier.Agent

	d.heading("Dossier - " + a.Name)
	d.field("Badge number", a.BadgeNumber)
	if dossier.Agency != nil {
		d.field("Agency", fmt.Sprintf("%s (%s)", dossier.Agency.Name, dossier.Agency.Abbreviation))
	}
	if dossier.Grade != nil {
		d.field("Grade", dossier.Grade.Name)
	}
	d.field("Status", string(a.Status))
	d.field("Hire date", formatDate(a.HireDate))
	d.field("E-mail", orDash(a.Email))
	d.field("Phone", orDash(a.Phone))

	d.section("Specialties")
	if len(dossier.Specialties) == 0 {
		d.paragraph("None")
	} else {
		names := make([]string, 0, len(dossier.Specialties))
		for _, s := range dossier.Specialties {
			names = append(names, s.SpecialtyName)
		}
		d.paragraph(strings.Join(names, ", "))
	}

	d.section("Trainings")
	trainings := make([][]string, 0, len(dossier.Trainings))
	for _, t := range dossier.Trainings {
		hours := "-"
		if t.Hours != nil {
			hours = trimFloat(*t.Hours)
		}
		trainings = append(trainings, []string{
			t.CompletedAt.Format(dateLayout),
			t.Title,
			hours,
			orDash(t.Instructor),
		})
	}
	d.table([]string{"Date", "Training", "Hours", "Instructor"}, []float64{0.16, 0.44, 0.1, 0.3}, trainings)

	d.section("Disciplinary records")
	records := make([][]string, 0, len(dossier.DisciplinaryRecords))
	for _, rec := range dossier.DisciplinaryRecords {
		records = append(records, []string{
			rec.Date.Format(dateLayout),
			string(rec.Type),
			rec.Reason,
		})
	}
	d.table([]string{"Date", "Type", "Reason"}, []float64{0.16, 0.18, 0.66}, records)

	return d.output()
}

// UserSheet renders the fact sheet of a staff account
func (r *Renderer) UserSheet(u *models.UserWithRoles) ([]byte, error) {
	d := r.newDocument("Account")

	d.heading("Account - " + u.FullName())
	d.field("E-mail", u.Email)
	d.field("First name", dashIfEmpty(u.FirstName))
	d.field("Last name", dashIfEmpty(u.LastName))

	roles := u.RoleNames()
	if len(roles) == 0 {
		d.field("Roles", "-")
	} else {
		d.field("Roles", strings.Join(roles, ", "))
	}

	active := "yes"
	if !u.IsActive {
		active = "no"
	}
	d.field("Active", active)
	d.field("Created", formatDate(&u.CreatedAt))
	d.field("Last login", formatDate(u.LastLoginAt))

	return d.output()
}
