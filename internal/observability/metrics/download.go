package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DownloadMetrics contains all Prometheus metrics related to fetching remote corpora.
// Recording methods are nil-safe.
type DownloadMetrics struct {
	Downloads        *prometheus.CounterVec
	DownloadBytes    *prometheus.CounterVec
	DownloadDuration *prometheus.HistogramVec
	Retries          *prometheus.CounterVec
	MemoHits         prometheus.Counter
	MemoMisses       prometheus.Counter
	registry         *prometheus.Registry
}

// NewDownloadMetrics creates a new instance of DownloadMetrics registered with registry.
func NewDownloadMetrics(registry *prometheus.Registry) (*DownloadMetrics, error) {
	m := &DownloadMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register download metrics: %w", err)
	}
	return m, nil
}

func (m *DownloadMetrics) initMetrics() {
	m.Downloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "downloads_total",
		Help:      "Total number of corpus downloads by frequency and status.",
	}, []string{"frequency", "status"})

	m.DownloadBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "download_bytes_total",
		Help:      "Bytes transferred while downloading corpus files.",
	}, []string{"frequency", "file"})

	m.DownloadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "download_duration_seconds",
		Help:      "Duration of complete corpus downloads in seconds.",
		Buckets:   DownloadDurationBuckets,
	}, []string{"frequency"})

	m.Retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "download_retries_total",
		Help:      "Total number of retried transfer attempts.",
	}, []string{"frequency"})

	m.MemoHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "download_memo_hits_total",
		Help:      "Loads served from the in-memory dataset memo.",
	})

	m.MemoMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "download_memo_misses_total",
		Help:      "Loads that had to read the cached corpus file.",
	})
}

// RecordDownload records one complete download attempt for frequency.
func (m *DownloadMetrics) RecordDownload(frequency string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.Downloads.WithLabelValues(frequency, status).Inc()
	m.DownloadDuration.WithLabelValues(frequency).Observe(d.Seconds())
}

// AddBytes adds n transferred bytes of file (FileTrain or FileTest).
func (m *DownloadMetrics) AddBytes(frequency, file string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.DownloadBytes.WithLabelValues(frequency, file).Add(float64(n))
}

// IncrementRetries increases the retry counter for frequency by one.
func (m *DownloadMetrics) IncrementRetries(frequency string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(frequency).Inc()
}

// RecordMemo records whether a load was served from memory.
func (m *DownloadMetrics) RecordMemo(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.MemoHits.Inc()
		return
	}
	m.MemoMisses.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *DownloadMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Downloads.Collect(ch)
	m.DownloadBytes.Collect(ch)
	m.DownloadDuration.Collect(ch)
	m.Retries.Collect(ch)
	ch <- m.MemoHits
	ch <- m.MemoMisses
}

// Describe implements the prometheus.Collector interface.
func (m *DownloadMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Downloads.Describe(ch)
	m.DownloadBytes.Describe(ch)
	m.DownloadDuration.Describe(ch)
	m.Retries.Describe(ch)
	ch <- m.MemoHits.Desc()
	ch <- m.MemoMisses.Desc()
}
