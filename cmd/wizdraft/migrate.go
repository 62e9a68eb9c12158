package main

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"wizdraft/internal/config"
	"wizdraft/internal/store"

	_ "modernc.org/sqlite"
)

func newMigrateCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var dryRun bool
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect snapshot database migrations",
		Long:  "Run or inspect snapshot database migrations. Stop a running server first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.SnapshotDBPath()
			if inspect || dryRun {
				plan, err := inspectMigrations(path)
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(plan)
				}

				if err := writePlain("Current version: %d\nAvailable version: %d\n", plan.CurrentVersion, plan.AvailableVersion); err != nil {
					return err
				}
				if len(plan.Pending) == 0 {
					return writePlain("No pending migrations.\n")
				}
				if err := writePlain("Pending migrations: %d\n", len(plan.Pending)); err != nil {
					return err
				}
				for _, m := range plan.Pending {
					if err := writePlain("  %d: %s\n", m.Version, m.Description); err != nil {
						return err
					}
				}
				return nil
			}

			// Opening the store applies pending migrations, same as server start.
			st, err := store.Open(path)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			status, err := st.MigrationStatus()
			closeErr := st.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}

			if out.structured() {
				return writeJSON(status)
			}
			return writeSuccess("snapshot schema at version %d", status.CurrentVersion)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")

	return cmd
}

func inspectMigrations(path string) (*store.MigrationStatus, error) {
	db, err := openRawDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return nil, fmt.Errorf("inspect migrations: %w", err)
	}
	return plan, nil
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}
