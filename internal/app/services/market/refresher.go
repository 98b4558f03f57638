package market

import (
	"context"
	"sync"
	"time"

	"github.com/camp-network/marketplace/pkg/logger"
)

// Refresher periodically re-runs a refresh function against the backing
// store. It replaces any in-process price drift: displayed market data
// only changes when the store changes.
type Refresher struct {
	interval time.Duration
	refresh  func(ctx context.Context) error
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher creates a refresher calling refresh every interval.
func NewRefresher(interval time.Duration, refresh func(ctx context.Context) error, log *logger.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("refresher")
	}
	return &Refresher{interval: interval, refresh: refresh, log: log}
}

// Start launches the refresh loop. Calling Start on a running refresher
// is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.refresh(ctx); err != nil {
					r.log.WithError(err).Warn("refresh failed")
				}
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
