package blobstore

import (
	"io"
	"log/slog"

	"github.com/facebookgo/clock"
)

type options struct {
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Store implementation.
type Option func(*options)

// WithClock sets the clock used for StoredAt stamps and sweeps.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:  clock.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
