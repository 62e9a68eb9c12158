package attach

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wizdraft/internal/models"
)

// SweepResult reports one age-based sweep.
type SweepResult struct {
	Scanned        int    `json:"scanned" yaml:"scanned"`
	Removed        int    `json:"removed" yaml:"removed"`
	Kept           int    `json:"kept" yaml:"kept"`
	Failed         int    `json:"failed" yaml:"failed"`
	ReclaimedBytes uint64 `json:"reclaimed_bytes" yaml:"reclaimed_bytes"`
}

// Sweep removes blobs stored more than maxAge ago that the current draft no
// longer references. Referenced blobs are counted as kept.
func (m *Manager) Sweep(ctx context.Context, maxAge time.Duration) (SweepResult, error) {
	var result SweepResult
	if maxAge < 0 {
		return result, fmt.Errorf("max age must not be negative")
	}
	if err := m.available(ctx); err != nil {
		return result, err
	}
	infos, err := m.store.List(ctx)
	if err != nil {
		return result, err
	}

	referenced := m.drafts.Snapshot().BlobIDs()
	cutoff := m.clock.Now().Add(-maxAge)
	for _, info := range infos {
		result.Scanned++
		if !info.StoredAt.Before(cutoff) {
			continue
		}
		if _, ok := referenced[info.ID]; ok {
			result.Kept++
			continue
		}
		if err := m.store.Remove(ctx, info.ID); err != nil {
			m.logger.Warn("sweep removal failed", "blob_id", info.ID, "error", err)
			result.Failed++
			continue
		}
		result.Removed++
		result.ReclaimedBytes += info.Metadata.Size
	}
	m.logger.Info("sweep complete", "removed", result.Removed, "kept", result.Kept, "failed", result.Failed)
	return result, nil
}

// ForceSweep removes every blob stored more than maxAge ago, referenced or
// not. Fields left pointing at a removed blob are reported as missing on the
// next rehydration.
func (m *Manager) ForceSweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if err := m.available(ctx); err != nil {
		return 0, err
	}
	removed, err := m.store.SweepOlderThan(ctx, maxAge)
	if err != nil {
		return removed, err
	}
	m.logger.Warn("forced sweep complete", "removed", removed, "max_age", maxAge.String())
	return removed, nil
}

// DanglingRef is a draft field pointing at a blob the store does not hold.
type DanglingRef struct {
	Selector models.Selector `json:"selector" yaml:"selector"`
	BlobID   string          `json:"blob_id" yaml:"blob_id"`
}

// OrphanReport compares the draft with the blob store.
type OrphanReport struct {
	Unreferenced []models.BlobInfo `json:"unreferenced" yaml:"unreferenced"`
	Dangling     []DanglingRef     `json:"dangling" yaml:"dangling"`
}

// Consistent reports whether every stored reference has exactly one blob and
// every blob is referenced.
func (r OrphanReport) Consistent() bool {
	return len(r.Unreferenced) == 0 && len(r.Dangling) == 0
}

// Orphans lists blobs no field references and fields whose blob is gone.
func (m *Manager) Orphans(ctx context.Context) (OrphanReport, error) {
	report := OrphanReport{Unreferenced: []models.BlobInfo{}, Dangling: []DanglingRef{}}
	if err := m.available(ctx); err != nil {
		return report, err
	}
	infos, err := m.store.List(ctx)
	if err != nil {
		return report, err
	}

	present := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		present[info.ID] = struct{}{}
	}
	rec := m.drafts.Snapshot()
	referenced := rec.BlobIDs()
	for _, info := range infos {
		if _, ok := referenced[info.ID]; !ok {
			report.Unreferenced = append(report.Unreferenced, info)
		}
	}
	for _, field := range rec.References() {
		id := field.Reference.BlobID()
		if id == "" {
			continue
		}
		if _, ok := present[id]; !ok {
			report.Dangling = append(report.Dangling, DanglingRef{Selector: field.Selector, BlobID: id})
		}
	}
	sort.Slice(report.Dangling, func(i, j int) bool {
		return report.Dangling[i].Selector.String() < report.Dangling[j].Selector.String()
	})
	return report, nil
}
