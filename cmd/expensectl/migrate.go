package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"expensebot/internal/storage"
)

func (a *app) migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Create or update the SQLite schema and seed the category vocabulary.

Migrations are embedded in the binary; running them twice is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DataBackend != "sqlite" {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", cfg.DataBackend)
			}

			if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0o755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}

			out := cmd.OutOrStdout()
			if !status {
				logger.Info("Running database migrations", "db_path", cfg.SQLiteDBPath)
				if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
					return err
				}
			}

			version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			state := successStyle.Render("clean")
			if dirty {
				state = errorStyle.Render("dirty")
			}
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Database:"), cfg.SQLiteDBPath)
			fmt.Fprintf(out, "%s %d (%s)\n", titleStyle.Render("Schema version:"), version, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the current schema version without migrating")
	return cmd
}
