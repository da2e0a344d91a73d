// Package metrics содержит метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourism",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tourism",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	SimilarityCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourism",
		Name:      "similarity_cache_requests_total",
		Help:      "Visual search result cache lookups.",
	}, []string{"result"})

	IndexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tourism",
		Name:      "embedding_index_entries",
		Help:      "Entries in the loaded embedding index.",
	})

	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourism",
		Name:      "outbox_events_total",
		Help:      "Outbox events by publishing outcome.",
	}, []string{"outcome"})

	ExtractorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tourism",
		Name:      "feature_extractor_duration_seconds",
		Help:      "Latency of feature extraction calls including retries.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
)
