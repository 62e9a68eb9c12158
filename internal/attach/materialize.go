package attach

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"wizdraft/internal/models"
)

// Materialized is one attachment resolved for submission.
type Materialized struct {
	Selector models.Selector
	Handle   models.Handle
}

// Materialize resolves every attachment of the current draft, in field order.
// If any blob is gone the result is a *MissingError naming every such field.
func (m *Manager) Materialize(ctx context.Context) ([]Materialized, error) {
	fields := m.drafts.Snapshot().References()
	out := make([]Materialized, len(fields))

	var (
		mu      sync.Mutex
		missing []models.Selector
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.materializeConcurrency)
	for i, field := range fields {
		g.Go(func() error {
			h, _, err := m.resolver.Resolve(gctx, field.Reference)
			if errors.Is(err, ErrUnresolvable) {
				mu.Lock()
				missing = append(missing, field.Selector)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("resolve %s: %w", field.Selector, err)
			}
			out[i] = Materialized{Selector: field.Selector, Handle: h}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &MissingError{Selectors: missing}
	}
	return out, nil
}
