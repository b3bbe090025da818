package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"academy-portal/internal/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	var path string

	migrationsPath := func() string {
		if path != "" {
			return path
		}
		return a.cfg.Database.MigrationsPath
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "migrations directory (defaults to DB_MIGRATIONS_PATH)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				executor := database.NewMigrationExecutor(a.db.DB)
				if err := executor.RunMigrations(cmd.Context(), migrationsPath()); err != nil {
					return err
				}
				color.Green("Schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				statuses, err := database.NewMigrationExecutor(a.db.DB).Status(cmd.Context(), migrationsPath())
				if err != nil {
					return err
				}
				renderMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Revert the most recently applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := database.NewMigrationExecutor(a.db.DB).Rollback(cmd.Context(), migrationsPath())
				if err != nil {
					return err
				}
				if m == nil {
					color.Yellow("Nothing to roll back")
					return nil
				}
				color.Green("Rolled back %s (%s)", m.Version, m.Title)
				return nil
			},
		},
	)
	return cmd
}

func renderMigrationStatus(w io.Writer, statuses []database.MigrationStatus) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Version", "Title", "Applied", "Applied at"})

	pending := 0
	for _, s := range statuses {
		applied, at := color.YellowString("pending"), "-"
		if s.Applied {
			applied = color.GreenString("yes")
			if s.AppliedAt != nil {
				at = formatTime(*s.AppliedAt)
			}
		} else {
			pending++
		}
		table.Append([]string{s.Version, s.Title, applied, at})
	}
	table.Render()

	if pending > 0 {
		fmt.Fprintf(w, "%d pending migration(s)\n", pending)
	}
}
