// Package metrics exposes match outcome counters to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thp-tushar/carbonmatch/pkg/trade"
)

type Metrics struct {
	registry     *prometheus.Registry
	outcomes     *prometheus.CounterVec
	counterparts prometheus.Histogram
	gasUsed      prometheus.Histogram
	lastOutcome  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matcher",
			Name:      "outcomes_total",
			Help:      "Processed buy orders by outcome status.",
		}, []string{"status"}),
		counterparts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matcher",
			Name:      "counterparties",
			Help:      "Eligible sell orders per submitted match.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50},
		}),
		gasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matcher",
			Name:      "match_gas_used",
			Help:      "Gas used by mined match transactions.",
			Buckets:   prometheus.ExponentialBuckets(50_000, 2, 6),
		}),
		lastOutcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matcher",
			Name:      "last_outcome_timestamp_seconds",
			Help:      "Unix time of the most recent outcome per status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.outcomes, m.counterparts, m.gasUsed, m.lastOutcome)
	return m
}

func (m *Metrics) Name() string { return "metrics" }

// Report implements trade.Reporter.
func (m *Metrics) Report(_ context.Context, o trade.Outcome) error {
	status := string(o.Status)
	m.outcomes.WithLabelValues(status).Inc()
	m.lastOutcome.WithLabelValues(status).Set(float64(o.At.Unix()))
	if o.Status != trade.StatusNoMatch && len(o.SellOrderIDs) > 0 {
		m.counterparts.Observe(float64(len(o.SellOrderIDs)))
	}
	if o.GasUsed > 0 {
		m.gasUsed.Observe(float64(o.GasUsed))
	}
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ trade.Reporter = (*Metrics)(nil)
