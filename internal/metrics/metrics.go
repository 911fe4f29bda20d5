package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynaqr_scans_resolved_total",
		Help: "Total number of scans that resolved to a redirect.",
	})

	ScansDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynaqr_scans_denied_total",
		Help: "Total number of scans denied, labelled by policy reason.",
	}, []string{"reason"})

	ScanIncrementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynaqr_scan_increment_failures_total",
		Help: "Scan-count increments that failed after a redirect was already served.",
	})

	TransactionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dynaqr_transactions_submitted_total",
		Help: "Ledger transactions submitted, labelled by operation and outcome.",
	}, []string{"operation", "outcome"})

	ConfirmationTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dynaqr_confirmation_timeouts_total",
		Help: "Submissions that were not confirmed within the round budget.",
	})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dynaqr_resolve_duration_ms",
		Help:    "End-to-end resolve latency in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)
