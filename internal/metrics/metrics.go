// Package metrics declares the Prometheus instruments exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Live session metrics
var (
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_active_sessions",
			Help: "Number of live sessions currently marked active",
		},
	)

	PollerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_poller_ticks_total",
			Help: "Comment poller ticks by outcome",
		},
		[]string{"outcome"},
	)

	PollerCrashes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_poller_crashes_total",
			Help: "Comment poller goroutines terminated by panic",
		},
	)
)

// Reply pipeline metrics
var (
	AnalyzeJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_analyze_jobs_total",
			Help: "Analyze jobs by result (ok, canned_reply, text_fallback, config_missing, rejected)",
		},
		[]string{"result"},
	)

	AnalyzeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_analyze_duration_seconds",
			Help:    "End-to-end analyze duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	TextGenRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_textgen_retries_total",
			Help: "Text-generation attempts retried after a transient failure",
		},
	)
)

// Realtime channel metrics
var (
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_connected_clients",
			Help: "WebSocket clients currently joined across all channels",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_events_published_total",
			Help: "Events published to realtime channels by kind",
		},
		[]string{"kind"},
	)

	SlowClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_slow_client_disconnects_total",
			Help: "Clients dropped because their send buffer was full",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_connections_rejected_total",
			Help: "WebSocket connections rejected by reason",
		},
		[]string{"reason"},
	)
)
