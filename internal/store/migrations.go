package store

import (
	"cmp"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus reports the current and available migration versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: draft_snapshots table",
		SQL: `
CREATE TABLE IF NOT EXISTS draft_snapshots (
  slot TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "add size_bytes column to draft_snapshots",
		SQL: `
ALTER TABLE draft_snapshots ADD COLUMN size_bytes INTEGER NOT NULL DEFAULT 0;
UPDATE draft_snapshots SET size_bytes = length(CAST(body AS BLOB));
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(migrationsTableSQL)
	return err
}

// currentVersion returns the highest applied migration version, or 0 if none.
func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// runMigrations applies pending migrations in version order, one
// transaction each, so a failure leaves the schema at the last good version.
func runMigrations(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for _, m := range pendingMigrations(current) {
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m Migration) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
	}
	if _, err = tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, formatTime(time.Now())); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// MigrationPlan reports the schema version without applying anything.
func MigrationPlan(db *sql.DB) (*MigrationStatus, error) {
	if err := ensureMigrationsTable(db); err != nil {
		return nil, err
	}
	current, err := currentVersion(db)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{CurrentVersion: current, AvailableVersion: latestVersion()}
	for _, m := range pendingMigrations(current) {
		status.Pending = append(status.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
	}
	return status, nil
}

func latestVersion() int {
	latest := 0
	for _, m := range migrations {
		latest = max(latest, m.Version)
	}
	return latest
}

// pendingMigrations returns the migrations newer than current, oldest first.
func pendingMigrations(current int) []Migration {
	var pending []Migration
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	slices.SortFunc(pending, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return pending
}
