// Package metrics owns the Prometheus registry for scoring activity and the
// listener that exposes it.
package metrics

import (
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/tiacalc/tiacalc/pkg/scoring"
)

const namespace = "tiacalc"

// Sources label which surface produced a score.
const (
	SourceAPI       = "api"
	SourceWorksheet = "worksheet"
	SourceWS        = "ws"
)

// Metrics holds the collectors. The zero value is not usable; call New.
type Metrics struct {
	reg *prometheus.Registry

	scores  *prometheus.CounterVec
	points  prometheus.Histogram
	reloads prometheus.Counter
}

// New creates a registry with the scoring collectors plus the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_total",
			Help:      "Scoring calculations by resulting designation and source.",
		}, []string{"designation", "source"}),
		points: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_points",
			Help:      "Total points of each calculation.",
			Buckets:   []float64{50, 60, 70, 74, 78, 85, 90, 95, 100},
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_reloads_total",
			Help:      "Scoring policy hot reloads applied.",
		}),
	}

	m.reg.MustRegister(
		m.scores,
		m.points,
		m.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveScore records one calculation.
func (m *Metrics) ObserveScore(source string, r scoring.Result) {
	m.scores.WithLabelValues(string(r.Designation), source).Inc()
	m.points.Observe(r.TotalPoints)
}

// PolicyReloaded counts one applied policy reload.
func (m *Metrics) PolicyReloaded() {
	m.reloads.Inc()
}

// TrackWorksheets registers a gauge that reports count() on every scrape.
func (m *Metrics) TrackWorksheets(count func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worksheets_active",
		Help:      "Worksheet sessions currently held in memory.",
	}, func() float64 { return float64(count()) }))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// WriteText renders every tiacalc_* family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
