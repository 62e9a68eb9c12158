package store

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openScratchDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := (&url.URL{Scheme: "file", Path: filepath.Join(t.TempDir(), "scratch.db")}).String()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrationsReachesLatest(t *testing.T) {
	db := openScratchDB(t)

	// Second run must be a no-op.
	require.NoError(t, runMigrations(db))
	require.NoError(t, runMigrations(db))

	version, err := currentVersion(db)
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), version)

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, len(migrations), applied)

	var tables int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'draft_snapshots'",
	).Scan(&tables))
	assert.Equal(t, 1, tables)
}

func TestMigrationPlanOnEmptyDB(t *testing.T) {
	plan, err := MigrationPlan(openScratchDB(t))
	require.NoError(t, err)

	assert.Zero(t, plan.CurrentVersion)
	assert.Equal(t, 2, plan.AvailableVersion)
	require.Len(t, plan.Pending, 2)
	assert.Equal(t, 1, plan.Pending[0].Version)
	assert.Equal(t, 2, plan.Pending[1].Version)
}

func TestPendingMigrationsSkipsApplied(t *testing.T) {
	assert.Len(t, pendingMigrations(0), len(migrations))
	pending := pendingMigrations(1)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
	assert.Empty(t, pendingMigrations(latestVersion()))
}

func TestSizeColumnBackfilledForExistingRows(t *testing.T) {
	db := openScratchDB(t)
	require.NoError(t, ensureMigrationsTable(db))
	require.NoError(t, applyMigration(db, migrations[0]))

	const body = `{"step":2}`
	_, err := db.Exec("INSERT INTO draft_snapshots (slot, body, updated_at) VALUES ('current', ?, datetime('now'))", body)
	require.NoError(t, err)

	require.NoError(t, runMigrations(db))

	var size int
	require.NoError(t, db.QueryRow("SELECT size_bytes FROM draft_snapshots WHERE slot = 'current'").Scan(&size))
	assert.Equal(t, len(body), size)
}
