// Package metrics holds the prometheus collectors for the chat pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcomes.
const (
	OutcomeAnswered       = "answered"
	OutcomeBlocked        = "blocked"
	OutcomeGeneratorError = "generator_error"
)

// Metrics is a private registry with the pipeline collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	chatRequests  *prometheus.CounterVec
	factFetches   *prometheus.CounterVec
	factsInjected prometheus.Histogram
	cachedFacts   prometheus.Gauge
	factsAppended prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dhammi_chat_requests_total",
			Help: "Chat requests by outcome.",
		}, []string{"outcome"}),
		factFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dhammi_fact_fetches_total",
			Help: "Fact store reads by cache result.",
		}, []string{"result"}),
		factsInjected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dhammi_facts_injected",
			Help:    "Facts added to each composed prompt.",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		cachedFacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dhammi_cached_facts",
			Help: "Facts in the last fetched snapshot.",
		}),
		factsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dhammi_facts_appended_total",
			Help: "Facts written to the ledger.",
		}),
	}
	m.Registry.MustRegister(
		m.chatRequests,
		m.factFetches,
		m.factsInjected,
		m.cachedFacts,
		m.factsAppended,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveChat(outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
}

// ObserveFetch matches cttm.Observer.
func (m *Metrics) ObserveFetch(result string, facts int) {
	if m == nil {
		return
	}
	m.factFetches.WithLabelValues(result).Inc()
	m.cachedFacts.Set(float64(facts))
}

func (m *Metrics) ObserveInjected(n int) {
	if m == nil {
		return
	}
	m.factsInjected.Observe(float64(n))
}

func (m *Metrics) ObserveAppend() {
	if m == nil {
		return
	}
	m.factsAppended.Inc()
}
