package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"expensebot/internal/cli"
	gsheet "expensebot/internal/sheets/google"
	"expensebot/internal/worker"
)

func (a *app) mirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Manage the Google Sheets mirror",
	}
	cmd.AddCommand(a.backfillCmd())
	return cmd
}

// backfillCmd copies expenses the worker missed, e.g. while the broker was
// down. Rows already present in the sheet are skipped.
func (a *app) backfillCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Append a user's expenses that are missing from the sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			filter, err := filters.build(time.Now().UTC())
			if err != nil {
				return err
			}

			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := cli.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			sheetsClient, err := gsheet.New(ctx, gsheet.Config{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				SheetName:       cfg.GoogleSheetName,
				CredentialsJSON: cfg.GoogleServiceAccountJSON,
				CredentialsFile: cfg.GoogleServiceAccountFile,
			}, logger)
			if err != nil {
				return err
			}

			appended, err := worker.NewMirrorWorker(store.Store, sheetsClient, logger).Backfill(ctx, filters.userID, filter)
			if err != nil {
				return fmt.Errorf("backfill stopped after %d rows: %w", appended, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d expenses appended\n", successStyle.Render("Backfill complete:"), appended)
			return nil
		},
	}

	filters.register(cmd)
	return cmd
}
