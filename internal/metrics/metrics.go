package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moovie",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moovie",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	SearchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moovie",
		Name:      "search_total",
		Help:      "Total searches by classified query type.",
	}, []string{"query_type"})

	SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moovie",
		Name:      "search_duration_seconds",
		Help:      "Search latency in seconds by classified query type.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"query_type"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moovie",
		Name:      "similarity_cache_hits_total",
		Help:      "Total number of similarity cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moovie",
		Name:      "similarity_cache_misses_total",
		Help:      "Total number of similarity cache misses.",
	})

	CorpusSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "moovie",
		Name:      "corpus_records",
		Help:      "Number of records in the published corpus.",
	})

	CorpusRebuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moovie",
		Name:      "corpus_rebuilds_total",
		Help:      "Corpus rebuilds by result.",
	}, []string{"status"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SearchTotal,
		SearchDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		CorpusSize,
		CorpusRebuildsTotal,
	)
}
