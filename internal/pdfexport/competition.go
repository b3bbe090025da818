package pdfexport

import (
	"fmt"
	"strconv"

	"academy-portal/internal/models"
)

func competitionWindow(c *models.Competition) string {
	switch {
	case c.StartDate != nil && c.EndDate != nil:
		return fmt.Sprintf("from %s to %s", formatDate(c.StartDate), formatDate(c.EndDate))
	case c.EndDate != nil:
		return "until " + formatDate(c.EndDate)
	case c.StartDate != nil:
		return "from " + formatDate(c.StartDate)
	}
	return "open until further notice"
}

// Convocation renders the letter inviting one candidate to a private competition
func (r *Renderer) Convocation(inv *models.CompetitionInvitation, c *models.Competition) ([]byte, error) {
	d := r.newDocument("Convocation")

	d.heading("Convocation - " + c.Title)
	d.paragraph(fmt.Sprintf("Dear %s,", inv.CandidateName))
	d.paragraph(fmt.Sprintf(
		"You are invited to sit the competition \"%s\". The competition is open %s.",
		c.Title, competitionWindow(c),
	))
	if c.Description != "" {
		d.paragraph(c.Description)
	}

	d.section("Your credentials")
	d.field("Login", inv.LoginIdentifier)
	d.field("Password", inv.LoginPassword)
	d.paragraph("These credentials are personal and can be used only once. Keep this letter until the end of the competition.")

	d.section("Competition")
	d.field("Specialty", dashIfEmpty(c.Specialty))
	d.field("Maximum score", strconv.Itoa(c.MaxScore))

	return d.output()
}

// Invitations renders the credential list of a private competition. A single
// invitation gives a one-row sheet.
func (r *Renderer) Invitations(c *models.Competition, invitations []models.CompetitionInvitation) ([]byte, error) {
	d := r.newDocument("Invitations")

	d.heading("Invitations - " + c.Title)
	d.field("Window", competitionWindow(c))
	d.field("Invitations", strconv.Itoa(len(invitations)))
	d.pdf.Ln(2)

	rows := make([][]string, 0, len(invitations))
	for _, inv := range invitations {
		rows = append(rows, []string{
			inv.CandidateName,
			orDash(inv.CandidateEmail),
			inv.LoginIdentifier,
			inv.LoginPassword,
			string(inv.Status),
		})
	}
	d.table(
		[]string{"Candidate", "E-mail", "Login", "Password", "Status"},
		[]float64{0.24, 0.26, 0.2, 0.18, 0.12},
		rows,
	)

	return d.output()
}

// CompetitionResults renders the graded participations of a competition,
// in the order given
func (r *Renderer) CompetitionResults(c *models.Competition, participations []models.CompetitionParticipation) ([]byte, error) {
	d := r.newDocument("Results")

	d.heading("Results - " + c.Title)
	d.field("Type", string(c.Type))
	d.field("Window", competitionWindow(c))
	d.field("Participants", strconv.Itoa(len(participations)))
	d.pdf.Ln(2)

	rows := make([][]string, 0, len(participations))
	for i, p := range participations {
		pct := "-"
		if p.MaxPossibleScore > 0 {
			pct = fmt.Sprintf("%d%%", p.TotalScore*100/p.MaxPossibleScore)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			p.ParticipantName,
			fmt.Sprintf("%d / %d", p.TotalScore, p.MaxPossibleScore),
			pct,
			string(p.Status),
			p.SubmittedAt.Format(dateLayout),
		})
	}
	d.table(
		[]string{"#", "Participant", "Score", "%", "Status", "Submitted"},
		[]float64{0.06, 0.34, 0.16, 0.1, 0.16, 0.18},
		rows,
	)

	return d.output()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
