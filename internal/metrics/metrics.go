// Package metrics defines the prometheus instruments exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KaspiRequests counts outbound marketplace calls by endpoint and outcome
	KaspiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaspisync_kaspi_requests_total",
		Help: "Outbound Kaspi API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// SyncCycles counts sync cycles by kind and outcome
	SyncCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaspisync_sync_cycles_total",
		Help: "Sync cycles by kind (products, orders, pricer) and outcome",
	}, []string{"kind", "outcome"})

	// SyncDuration observes the wall time of sync cycles by kind
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kaspisync_sync_duration_seconds",
		Help:    "Duration of sync cycles by kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// PriceChanges counts prices pushed by the optimizer
	PriceChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kaspisync_price_changes_total",
		Help: "Price changes pushed by the auto-dump optimizer",
	})

	// DeliveryConfirmations counts delivery confirmation outcomes
	DeliveryConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaspisync_delivery_confirmations_total",
		Help: "Delivery confirmation attempts by outcome",
	}, []string{"outcome"})
)
