package relay

import (
	"context"
	"log/slog"
	"time"
)

// Reaper periodically sweeps empty rooms out of the store. Normal deletion of
// empty rooms happens synchronously on leave/disconnect; the reaper is a
// safety net for any path that leaves an empty room behind.
type Reaper struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewReaper creates a reaper sweeping rooms idle for longer than maxAge every
// interval.
func NewReaper(store *Store, interval, maxAge time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{store: store, interval: interval, maxAge: maxAge, logger: logger}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reaper) sweep() {
	removed := r.store.SweepIdle(r.maxAge)
	if len(removed) > 0 {
		r.logger.Info("Reaped idle rooms", "count", len(removed), "keys", removed)
	}
}
