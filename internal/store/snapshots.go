package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DraftSlot is the single snapshot slot used by the wizard.
const DraftSlot = "current"

// SnapshotInfo describes the persisted snapshot without its body.
type SnapshotInfo struct {
	Slot      string    `json:"slot"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadSnapshot returns the persisted snapshot body, or "" when none exists.
func (s *Store) LoadSnapshot(ctx context.Context) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM draft_snapshots WHERE slot = ?", DraftSlot).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return body, nil
}

// SaveSnapshot replaces the persisted snapshot body.
func (s *Store) SaveSnapshot(ctx context.Context, body string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO draft_snapshots (slot, body, size_bytes, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET body = excluded.body, size_bytes = excluded.size_bytes, updated_at = excluded.updated_at`,
		DraftSlot, body, len(body), formatTime(time.Now()))
	return err
}

// ClearSnapshot deletes the persisted snapshot. Missing snapshots are ignored.
func (s *Store) ClearSnapshot(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM draft_snapshots WHERE slot = ?", DraftSlot)
	return err
}

// SnapshotInfo reports size and age of the persisted snapshot.
func (s *Store) SnapshotInfo(ctx context.Context) (SnapshotInfo, bool, error) {
	var info SnapshotInfo
	var updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT slot, size_bytes, updated_at FROM draft_snapshots WHERE slot = ?", DraftSlot,
	).Scan(&info.Slot, &info.SizeBytes, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, false, nil
	}
	if err != nil {
		return SnapshotInfo{}, false, err
	}
	info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return SnapshotInfo{}, false, err
	}
	return info, true, nil
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Store) MigrationStatus() (*MigrationStatus, error) {
	return MigrationPlan(s.db)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
