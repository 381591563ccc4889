// Package metrics defines the Prometheus metric collectors used by the server
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	ExperiencesRecordedTotal prometheus.Counter
	SearchQueriesTotal       *prometheus.CounterVec
	SearchLatency            *prometheus.HistogramVec
	SearchResultsCount       prometheus.Histogram
	IndexRebuildsTotal       *prometheus.CounterVec
	IndexedTermsCount        prometheus.Gauge
	VotesTotal               *prometheus.CounterVec
	CacheHitsTotal           prometheus.Counter
	CacheMissesTotal         prometheus.Counter
	FeedbackRatings          prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		ExperiencesRecordedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "experiences_recorded_total",
				Help: "Total experience records appended to the log.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, no_terms, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		IndexRebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_rebuilds_total",
				Help: "Total full index rebuilds by reason (cold, stale, policy).",
			},
			[]string{"reason"},
		),
		IndexedTermsCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexed_terms_count",
				Help: "Number of distinct terms in the inverted index.",
			},
		),
		VotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_total",
				Help: "Total vote operations by status (voted, not_found, error).",
			},
			[]string{"status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of search cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of search cache misses.",
			},
		),
		FeedbackRatings: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tool_feedback_ratings",
				Help:    "Distribution of tool feedback ratings.",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
	}

	prometheus.MustRegister(
		m.ExperiencesRecordedTotal,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.IndexRebuildsTotal,
		m.IndexedTermsCount,
		m.VotesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.FeedbackRatings,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
