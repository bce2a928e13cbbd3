// Package metrics registers the service's counters on the default
// prometheus registerer, served by the web layer under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TxSubmitted counts mutating calls handed to the wallet, by kind.
	TxSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmgate_tx_submitted_total",
		Help: "Mutating ledger calls submitted for signing, by action kind.",
	}, []string{"kind"})

	// TxConfirmed counts transactions accepted as final by the ledger.
	TxConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmgate_tx_confirmed_total",
		Help: "Submitted transactions confirmed by the ledger, by action kind.",
	}, []string{"kind"})

	// TxFailed counts operations that failed at submission or confirmation.
	TxFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmgate_tx_failed_total",
		Help: "Operations that failed before the view was updated, by action kind.",
	}, []string{"kind"})

	// RefreshTotal counts balance/activity reads applied to the view.
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmgate_refresh_total",
		Help: "Ledger state reads applied to the view, by kind.",
	}, []string{"kind"})

	// StaleRefreshDropped counts reads discarded by the request-token guard.
	StaleRefreshDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atmgate_stale_refresh_dropped_total",
		Help: "Out-of-order read results discarded instead of applied, by kind.",
	}, []string{"kind"})

	// PriceFetchFailures counts unreachable or malformed quote responses.
	PriceFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atmgate_price_fetch_failures_total",
		Help: "Price feed fetches that failed and left the previous quote stale.",
	})
)
