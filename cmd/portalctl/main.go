// Command portalctl is the operator CLI of the academy portal: schema
// migrations and read-only reports straight from the database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"academy-portal/internal/config"
	"academy-portal/internal/database"
	"academy-portal/internal/logger"
)

// app holds what every subcommand needs once the root command has connected
type app struct {
	cfg *config.Config
	db  *database.Database
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operate the academy portal database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			// stdout carries reports and CSV
			slog.SetDefault(logger.New(os.Stderr, logger.Config{Level: level, Pretty: true}))

			db, err := database.New(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			a.cfg, a.db = cfg, db
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(
		newMigrateCommand(a),
		newCompetitionsCommand(a),
		newInvitationsCommand(a),
		newActivityCommand(a),
	)
	return root
}
