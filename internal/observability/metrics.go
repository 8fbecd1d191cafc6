// Package observability defines the Prometheus metrics exported by the
// analysis pipeline and the dashboard server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for PerchView
type Metrics struct {
	registry *prometheus.Registry

	// Analysis metrics
	FilesAnalyzed    prometheus.Counter
	FilesSkipped     prometheus.Counter
	ChunksProcessed  prometheus.Counter
	DetectionsTotal  prometheus.Counter
	AnalyzeDuration  prometheus.Histogram
	AnalyzerFailures prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheStale  prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// MQTT metrics
	MQTTPublishes       prometheus.Counter
	MQTTPublishFailures prometheus.Counter
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		FilesAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_files_analyzed_total",
			Help: "Total number of audio files analyzed",
		}),
		FilesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_files_skipped_total",
			Help: "Total number of audio files skipped due to per-file errors",
		}),
		ChunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_chunks_processed_total",
			Help: "Total number of audio chunks run through the model",
		}),
		DetectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_detections_total",
			Help: "Total number of detections above the confidence threshold",
		}),
		AnalyzeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "perchview_analyze_duration_seconds",
			Help:    "Per-file analysis duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		AnalyzerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_analyzer_failures_total",
			Help: "Total number of per-file analyzer failures",
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_cache_hits_total",
			Help: "Total number of folder scans served from the result cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_cache_misses_total",
			Help: "Total number of folder scans with no usable cache entry",
		}),
		CacheStale: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_cache_stale_total",
			Help: "Total number of cache entries invalidated by folder changes",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "perchview_http_requests_total",
			Help: "Total HTTP requests by method, path and status code",
		}, []string{"method", "path", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perchview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by path",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),

		MQTTPublishes: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_mqtt_publishes_total",
			Help: "Total number of MQTT messages published",
		}),
		MQTTPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "perchview_mqtt_publish_failures_total",
			Help: "Total number of failed MQTT publish attempts",
		}),
	}
}

// Registry returns the registry holding all PerchView metrics, used by the
// /metrics endpoint handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
