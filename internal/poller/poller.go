// Package poller drives periodic snapshot refreshes. The poller is an owned,
// cancellable handle: it is the consuming view's job to Stop it whenever the
// active filter changes or the view is torn down, so no orphaned timer ever
// writes into a snapshot nobody is watching.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/QuangLe1997/media-transcode-sub001/internal/metrics"
	"github.com/QuangLe1997/media-transcode-sub001/internal/taskstore"
	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// Poller periodically re-fetches the task snapshot under one status filter.
// At most one fetch is in flight: a tick that fires while a fetch is still
// outstanding is skipped, not queued, so a slow upstream never produces a
// burst of catch-up fetches.
type Poller struct {
	store *taskstore.Store
	limit int

	mu       sync.Mutex
	status   *models.TaskStatus
	cancel   context.CancelFunc
	done     chan struct{}
	inFlight bool
	fetches  sync.WaitGroup
}

// New creates a stopped poller over the given store. limit bounds each
// fetch.
func New(store *taskstore.Store, limit int) *Poller {
	return &Poller{store: store, limit: limit}
}

// Start begins polling at the given interval with the given status filter.
// An already-running poller is stopped first, so changing the filter is
// Stop+Start in one call. The first fetch fires immediately, not one
// interval later.
func (p *Poller) Start(interval time.Duration, status *models.TaskStatus) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.status = status
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.loop(ctx, interval, done)
}

// Stop cancels future ticks and waits for the polling goroutine and any
// in-flight fetch to exit, so after Stop returns no further snapshot writes
// can originate here. Safe to call on a stopped poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.fetches.Wait()
}

// Running reports whether the poller currently owns a timer.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick dispatches one fetch on its own goroutine, keeping the loop free to
// observe and skip the ticks that fire while the fetch is still out.
func (p *Poller) tick(ctx context.Context) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		metrics.PollSkippedTotal.Inc()
		slog.Debug("poll tick skipped, fetch in flight")
		return
	}
	p.inFlight = true
	status := p.status
	p.mu.Unlock()

	p.fetches.Add(1)
	go func() {
		defer p.fetches.Done()
		defer func() {
			p.mu.Lock()
			p.inFlight = false
			p.mu.Unlock()
		}()
		p.fetch(ctx, status)
	}()
}

func (p *Poller) fetch(ctx context.Context, status *models.TaskStatus) {
	_, err := p.store.Fetch(ctx, status, p.limit)
	switch {
	case err == nil:
		metrics.FetchTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, taskstore.ErrStaleResponse):
		// Internal condition: a newer fetch already won. Not an error.
		metrics.FetchTotal.WithLabelValues("stale").Inc()
		slog.Debug("stale poll response discarded")
	case ctx.Err() != nil:
		// Stop raced the in-flight fetch.
	default:
		metrics.FetchTotal.WithLabelValues("error").Inc()
		slog.Warn("poll fetch failed", "error", err)
	}
}
