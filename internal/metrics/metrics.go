// Package metrics holds the Prometheus collectors, registered on the
// default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClassificationsTotal counts completed classifications by category.
var ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wastesort",
	Subsystem: "pipeline",
	Name:      "classifications_total",
	Help:      "Total completed classifications by category.",
}, []string{"category"})

// ClassificationFailures counts failed classifications by reason.
var ClassificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wastesort",
	Subsystem: "pipeline",
	Name:      "classification_failures_total",
	Help:      "Total failed classifications by reason.",
}, []string{"reason"})

// ImagesIngested counts acquired images by source.
var ImagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wastesort",
	Subsystem: "pipeline",
	Name:      "images_ingested_total",
	Help:      "Total images acquired by source.",
}, []string{"source"})

// InferenceDuration tracks forward-pass latency including preprocessing.
var InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "wastesort",
	Subsystem: "inference",
	Name:      "duration_seconds",
	Help:      "Classification latency in seconds.",
	Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
})

// ModelReady is 1 once the model reaches Ready, 0 otherwise.
var ModelReady = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "wastesort",
	Subsystem: "model",
	Name:      "ready",
	Help:      "Whether the model is loaded and ready (1) or not (0).",
})

// CameraErrors counts camera open and capture failures.
var CameraErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "wastesort",
	Subsystem: "capture",
	Name:      "errors_total",
	Help:      "Total camera open and capture failures.",
})

// EventSubscribers tracks currently connected event stream clients.
var EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "wastesort",
	Subsystem: "api",
	Name:      "event_subscribers",
	Help:      "Currently connected SSE clients.",
})
