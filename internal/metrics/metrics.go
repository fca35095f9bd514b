// Package metrics registers the console's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts snapshot fetches by outcome: ok, error, stale.
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_fetch_total",
		Help: "Task snapshot fetches by outcome.",
	}, []string{"outcome"})

	// PollSkippedTotal counts poll ticks coalesced because a fetch was
	// still in flight.
	PollSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "console_poll_skipped_total",
		Help: "Poll ticks skipped while a fetch was in flight.",
	})

	// BulkItemsTotal counts per-item bulk operation results.
	BulkItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_bulk_items_total",
		Help: "Bulk operation items by operation and outcome.",
	}, []string{"op", "outcome"})
)
