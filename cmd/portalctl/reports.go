package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"academy-portal/internal/models"
	"academy-portal/internal/repository"
	"academy-portal/internal/service"
)

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

// Competitions

func newCompetitionsCommand(a *app) *cobra.Command {
	var onlyActive bool

	list := &cobra.Command{
		Use:   "list",
		Short: "List competitions, private ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			competitions, err := repository.NewCompetitionRepository(a.db.DB).List(cmd.Context(), true, onlyActive)
			if err != nil {
				return err
			}
			renderCompetitions(cmd.OutOrStdout(), competitions, time.Now())
			return nil
		},
	}
	list.Flags().BoolVar(&onlyActive, "active", false, "only active competitions")

	cmd := &cobra.Command{Use: "competitions", Short: "Inspect competitions"}
	cmd.AddCommand(list)
	return cmd
}

func renderCompetitions(w io.Writer, competitions []models.Competition, now time.Time) {
	if len(competitions) == 0 {
		color.Yellow("No competitions")
		return
	}

	table := newTable(w, "ID", "Title", "Type", "Max", "Status", "Ends")
	for _, c := range competitions {
		status := color.RedString("closed")
		if c.IsOpen(now) {
			status = color.GreenString("open")
		} else if c.IsActive {
			status = color.YellowString("outside window")
		}
		table.Append([]string{
			c.ID.String(),
			c.Title,
			string(c.Type),
			strconv.Itoa(c.MaxScore),
			status,
			formatOptionalTime(c.EndDate),
		})
	}
	table.Render()
}

// Invitations

func newInvitationsCommand(a *app) *cobra.Command {
	var showPasswords bool

	list := &cobra.Command{
		Use:   "list <competition-id>",
		Short: "List the invitations of a private competition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			competitionID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid competition id %q", args[0])
			}
			invitations, err := repository.NewCompetitionRepository(a.db.DB).ListInvitations(cmd.Context(), competitionID)
			if err != nil {
				return err
			}
			renderInvitations(cmd.OutOrStdout(), invitations, showPasswords)
			return nil
		},
	}
	list.Flags().BoolVar(&showPasswords, "show-passwords", false, "print login passwords of unused invitations")

	cmd := &cobra.Command{Use: "invitations", Short: "Inspect private competition invitations"}
	cmd.AddCommand(list)
	return cmd
}

func renderInvitations(w io.Writer, invitations []models.CompetitionInvitation, showPasswords bool) {
	if len(invitations) == 0 {
		color.Yellow("No invitations")
		return
	}

	used := 0
	table := newTable(w, "Candidate", "Identifier", "Password", "Status", "Used at")
	for _, inv := range invitations {
		password := "********"
		if showPasswords && inv.Status == models.InvitationStatusCreated {
			password = inv.LoginPassword
		}
		status := color.GreenString(string(inv.Status))
		if inv.Status == models.InvitationStatusUsed {
			status = color.HiBlackString(string(inv.Status))
			used++
		}
		table.Append([]string{inv.CandidateName, inv.LoginIdentifier, password, status, formatOptionalTime(inv.UsedAt)})
	}
	table.Render()
	fmt.Fprintf(w, "%d/%d used\n", used, len(invitations))
}

// Activity

func newActivityCommand(a *app) *cobra.Command {
	var q service.ActivityQuery
	var output string

	query := func(cmd *cobra.Command) ([]models.ActivityLog, error) {
		return service.NewActivityService(repository.NewActivityRepository(a.db.DB)).Query(cmd.Context(), q)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show recent activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := query(cmd)
			if err != nil {
				return err
			}
			renderActivity(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write activity as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := query(cmd)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return service.ExportCSV(cmd.OutOrStdout(), rows)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := service.ExportCSV(f, rows); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			color.Green("Wrote %d rows to %s", len(rows), output)
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "-", "destination file, - for stdout")

	cmd := &cobra.Command{Use: "activity", Short: "Inspect the activity log"}
	flags := cmd.PersistentFlags()
	flags.StringVar(&q.Range, "range", "7d", "24h, 7d, 30d, all or an RFC 3339 time")
	flags.StringVar(&q.Type, "type", "", "type substring")
	flags.StringVar(&q.Role, "role", "", "author role")
	flags.StringVar(&q.Search, "search", "", "search in author e-mail and type")
	flags.IntVar(&q.Limit, "limit", 0, "maximum rows (capped at 200)")
	cmd.AddCommand(list, export)
	return cmd
}

func renderActivity(w io.Writer, rows []models.ActivityLog) {
	if len(rows) == 0 {
		color.Yellow("No activity in range")
		return
	}

	table := newTable(w, "When", "Type", "Author", "Role")
	for _, e := range rows {
		table.Append([]string{formatTime(e.CreatedAt), e.Type, e.AuthorEmail, e.Role})
	}
	table.Render()
}
