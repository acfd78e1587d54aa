// Package metrics provides Prometheus collectors for corpus loading and downloading.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CorpusMetrics contains all Prometheus metrics related to loading bundled corpora.
//
// All recording methods are safe to call on a nil receiver, so library code can
// record unconditionally.
type CorpusMetrics struct {
	Loads        *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
	SeriesLoaded *prometheus.GaugeVec
	Lookups      *prometheus.CounterVec
	registry     *prometheus.Registry
}

// NewCorpusMetrics creates a new instance of CorpusMetrics registered with registry.
func NewCorpusMetrics(registry *prometheus.Registry) (*CorpusMetrics, error) {
	m := &CorpusMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register corpus metrics: %w", err)
	}
	return m, nil
}

func (m *CorpusMetrics) initMetrics() {
	m.Loads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "corpus_loads_total",
		Help:      "Total number of corpus file loads by corpus and status.",
	}, []string{"corpus", "status"})

	m.LoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "corpus_load_duration_seconds",
		Help:      "Time spent reading and normalizing a corpus file.",
		Buckets:   LoadDurationBuckets,
	}, []string{"corpus"})

	m.SeriesLoaded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "corpus_series",
		Help:      "Number of series in the most recently loaded corpus.",
	}, []string{"corpus"})

	m.Lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "corpus_lookups_total",
		Help:      "Total number of series lookups by corpus and result.",
	}, []string{"corpus", "result"})
}

// RecordLoad records one load attempt of corpus.
func (m *CorpusMetrics) RecordLoad(corpus string, series int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(corpus).Observe(d.Seconds())
	if err != nil {
		m.Loads.WithLabelValues(corpus, StatusError).Inc()
		return
	}
	m.Loads.WithLabelValues(corpus, StatusSuccess).Inc()
	m.SeriesLoaded.WithLabelValues(corpus).Set(float64(series))
}

// RecordLookup records an index lookup against corpus.
func (m *CorpusMetrics) RecordLookup(corpus string, found bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if found {
		result = ResultHit
	}
	m.Lookups.WithLabelValues(corpus, result).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *CorpusMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Loads.Collect(ch)
	m.LoadDuration.Collect(ch)
	m.SeriesLoaded.Collect(ch)
	m.Lookups.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *CorpusMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Loads.Describe(ch)
	m.LoadDuration.Describe(ch)
	m.SeriesLoaded.Describe(ch)
	m.Lookups.Describe(ch)
}
