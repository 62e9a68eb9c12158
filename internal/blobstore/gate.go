package blobstore

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// initGate runs an open function at most once successfully. Concurrent
// callers share a single in-flight attempt; a failed attempt may be retried.
type initGate struct {
	group  singleflight.Group
	mu     sync.Mutex
	ready  bool
	closed bool
	opens  int
}

func (g *initGate) do(ctx context.Context, open func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ok, err := g.state(); ok || err != nil {
		return err
	}
	_, err, _ := g.group.Do("init", func() (any, error) {
		if ok, err := g.state(); ok || err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.opens++
		g.mu.Unlock()
		if err := open(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		g.mu.Lock()
		g.ready = true
		g.mu.Unlock()
		return nil, nil
	})
	return err
}

func (g *initGate) state() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	return g.ready, nil
}

// close marks the gate closed and reports whether it had been opened.
func (g *initGate) close() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	wasReady := g.ready
	g.ready = false
	g.closed = true
	return wasReady
}

func (g *initGate) openCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opens
}
