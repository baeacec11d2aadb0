package nutrition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts model calls.
	// Labels: operation (text, image, feedback), provider, result (success, configuration, format, network)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calorilog",
			Subsystem: "nutrition",
			Name:      "requests_total",
			Help:      "Total number of AI model calls by operation and result",
		},
		[]string{"operation", "provider", "result"},
	)

	// RequestDuration tracks model round-trip latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "calorilog",
			Subsystem: "nutrition",
			Name:      "request_duration_seconds",
			Help:      "Duration of AI model calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"operation", "provider"},
	)

	// ItemsRecognized counts food items returned by analyses.
	ItemsRecognized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calorilog",
			Subsystem: "nutrition",
			Name:      "items_recognized_total",
			Help:      "Total number of food items extracted from model responses",
		},
		[]string{"operation"},
	)

	// RejectedOverlaps counts analyses refused by the single-flight guard.
	RejectedOverlaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "calorilog",
			Subsystem: "nutrition",
			Name:      "rejected_overlaps_total",
			Help:      "Total number of analyses rejected because another was in flight",
		},
	)
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case isKind(err, ErrConfiguration):
		return "configuration"
	case isKind(err, ErrUpstreamFormat):
		return "format"
	case isKind(err, ErrValidation):
		return "validation"
	default:
		return "network"
	}
}
