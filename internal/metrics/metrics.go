// Package metrics exposes scan instrumentation to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all PatternSentinel metrics on a private prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	// Tuple outcomes
	Tuples        *prometheus.CounterVec
	TupleDuration *prometheus.HistogramVec

	// Scan level
	Scans        prometheus.Counter
	ScanDuration prometheus.Histogram
	LastScan     prometheus.Gauge

	// Signals
	SignalConfidence *prometheus.HistogramVec

	// Data acquisition
	Fetches   *prometheus.CounterVec
	CacheHits prometheus.Counter
	CacheMiss prometheus.Counter
}

// NewRegistry creates and registers every metric.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Tuples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patternsentinel_tuples_total",
				Help: "Detection tuples by pattern, timeframe and outcome",
			},
			[]string{"pattern", "timeframe", "outcome"},
		),
		TupleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "patternsentinel_tuple_duration_seconds",
				Help:    "Time spent detecting one tuple",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"pattern"},
		),
		Scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patternsentinel_scans_total",
			Help: "Completed scans",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "patternsentinel_scan_duration_seconds",
			Help:    "Wall time of a full scan including data collection",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		LastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "patternsentinel_last_scan_timestamp_seconds",
			Help: "Unix time of the last completed scan",
		}),
		SignalConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "patternsentinel_signal_confidence",
				Help:    "Adjusted confidence of emitted signals",
				Buckets: prometheus.LinearBuckets(45, 5, 12),
			},
			[]string{"pattern"},
		),
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patternsentinel_fetches_total",
				Help: "Bar fetches by source and result",
			},
			[]string{"source", "result"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patternsentinel_bar_cache_hits_total",
			Help: "Bar cache hits",
		}),
		CacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patternsentinel_bar_cache_misses_total",
			Help: "Bar cache misses",
		}),
	}
	r.reg.MustRegister(
		r.Tuples, r.TupleDuration,
		r.Scans, r.ScanDuration, r.LastScan,
		r.SignalConfidence,
		r.Fetches, r.CacheHits, r.CacheMiss,
	)
	return r
}

// ObserveTuple records the outcome of one detection tuple.
func (r *Registry) ObserveTuple(pattern, timeframe, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Tuples.WithLabelValues(pattern, timeframe, outcome).Inc()
	r.TupleDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
}

// ObserveSignal records an emitted signal's confidence.
func (r *Registry) ObserveSignal(pattern string, confidence float64) {
	if r == nil {
		return
	}
	r.SignalConfidence.WithLabelValues(pattern).Observe(confidence)
}

// ObserveScan records a finished scan.
func (r *Registry) ObserveScan(elapsed time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	r.Scans.Inc()
	r.ScanDuration.Observe(elapsed.Seconds())
	r.LastScan.Set(float64(finished.Unix()))
}

// ObserveFetch records a bar fetch.
func (r *Registry) ObserveFetch(source string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Fetches.WithLabelValues(source, result).Inc()
}

// ObserveCache records a cache lookup.
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHits.Inc()
	} else {
		r.CacheMiss.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
