package productsync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalogsync",
		Name:      "sync_attempts_total",
		Help:      "Item sync attempts by trigger, outcome and error kind.",
	}, []string{"trigger", "outcome", "error_kind"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalogsync",
		Name:      "sync_duration_seconds",
		Help:      "Duration of item sync attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalogsync",
		Name:      "webhook_events_total",
		Help:      "Verified webhook events by dispatch action.",
	}, []string{"action"})
)

func observe(r *Result, elapsed time.Duration) {
	syncAttempts.WithLabelValues(string(r.Trigger), string(r.Outcome), r.ErrorKind).Inc()
	syncDuration.WithLabelValues(string(r.Outcome)).Observe(elapsed.Seconds())
}
