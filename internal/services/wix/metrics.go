package wix

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalogsync",
		Subsystem: "wix",
		Name:      "request_duration_seconds",
		Help:      "Duration of single Wix API attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})

	requestRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalogsync",
		Subsystem: "wix",
		Name:      "request_retries_total",
		Help:      "Wix API attempts that were retried.",
	}, []string{"method"})
)
