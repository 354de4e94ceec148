package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamsActive tracks the number of transcoder processes currently supervised.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "baywatch_streams_active",
			Help: "Number of supervised transcoder processes",
		},
	)

	// StreamStartsTotal counts start attempts by result (reused, ready, timeout, error).
	StreamStartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baywatch_stream_starts_total",
			Help: "Total number of stream start requests",
		},
		[]string{"result"},
	)

	// StreamStopsTotal counts stops by reason (request, reconcile, exit, shutdown, failed_start).
	StreamStopsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baywatch_stream_stops_total",
			Help: "Total number of stream stops",
		},
		[]string{"reason"},
	)

	// StreamStartDuration tracks how long it takes for the first manifest to appear.
	StreamStartDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "baywatch_stream_start_duration_seconds",
			Help:    "Time from transcoder spawn to first manifest",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to ~6.4s
		},
	)

	// ReconcileRuns counts reconciliation sweeps.
	ReconcileRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "baywatch_reconcile_runs_total",
			Help: "Total number of stream reconciliation sweeps",
		},
	)

	// JobTransitions counts committed job transitions.
	JobTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baywatch_job_transitions_total",
			Help: "Total number of committed job transitions",
		},
		[]string{"transition"},
	)

	// CameraConflicts counts assignments rejected because the camera was already bound.
	CameraConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "baywatch_camera_conflicts_total",
			Help: "Total number of rejected camera assignments",
		},
	)
)
