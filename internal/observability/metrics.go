// Package observability bundles the fcompdata Prometheus collectors on one registry.
package observability

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/fcompdata/fcompdata/internal/buildinfo"
	"github.com/fcompdata/fcompdata/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Corpus   *metrics.CorpusMetrics
	Download *metrics.DownloadMetrics
}

// NewMetrics creates a new instance of Metrics with its own registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	corpusMetrics, err := metrics.NewCorpusMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus metrics: %w", err)
	}

	downloadMetrics, err := metrics.NewDownloadMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create download metrics: %w", err)
	}

	build := buildinfo.Current()
	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Name:      "build_info",
		Help:      "Build metadata of the running binary, always 1.",
		ConstLabels: prometheus.Labels{
			"version":    build.Version(),
			"commit":     build.Commit(),
			"go_version": build.GoVersion(),
		},
	})
	buildInfo.Set(1)
	if err := registry.Register(buildInfo); err != nil {
		return nil, fmt.Errorf("failed to register build info: %w", err)
	}

	return &Metrics{
		registry: registry,
		Corpus:   corpusMetrics,
		Download: downloadMetrics,
	}, nil
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteText writes every gathered metric family to w in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
