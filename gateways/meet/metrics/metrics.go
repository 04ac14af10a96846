package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meetpulse_webhook_events_total",
			Help: "Total number of webhook events received, by trigger",
		},
		[]string{"trigger"},
	)

	SnapshotQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meetpulse_snapshot_queries_total",
			Help: "Total number of participation snapshot queries",
		},
	)

	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meetpulse_snapshot_duration_seconds",
			Help:    "Time spent computing participation snapshots",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meetpulse_active_sessions",
			Help: "Number of meeting sessions currently monitored",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
