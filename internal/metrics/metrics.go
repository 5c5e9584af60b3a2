package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	jobs          *prometheus.CounterVec
	sections      *prometheus.CounterVec
	chunks        prometheus.Histogram
	parseDuration prometheus.Histogram
	embedRequests *prometheus.CounterVec
	answers       *prometheus.CounterVec
}

// New registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secgest",
			Name:      "jobs_total",
			Help:      "Ingest jobs by final status.",
		}, []string{"status"}),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secgest",
			Name:      "sections_found_total",
			Help:      "Sections found, by detection strategy.",
		}, []string{"strategy"}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "secgest",
			Name:      "chunks_per_filing",
			Help:      "Validated chunks produced per parsed filing.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "secgest",
			Name:      "parse_duration_seconds",
			Help:      "Time to parse one filing into chunks.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		embedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secgest",
			Name:      "embed_requests_total",
			Help:      "Embedding requests by outcome.",
		}, []string{"outcome"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secgest",
			Name:      "answers_total",
			Help:      "Questions answered, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.jobs, m.sections, m.chunks, m.parseDuration, m.embedRequests, m.answers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// SectionsFound records sections returned by one locator strategy.
func (m *Metrics) SectionsFound(strategy string, n int) {
	m.sections.WithLabelValues(strategy).Add(float64(n))
}

// FilingParsed records the outcome of parsing one filing.
func (m *Metrics) FilingParsed(chunks int, d time.Duration) {
	m.chunks.Observe(float64(chunks))
	m.parseDuration.Observe(d.Seconds())
}

// JobFinished counts a job reaching a terminal status.
func (m *Metrics) JobFinished(status string) {
	m.jobs.WithLabelValues(status).Inc()
}

// EmbedRequest counts one embedding call.
func (m *Metrics) EmbedRequest(err error) {
	m.embedRequests.WithLabelValues(outcome(err)).Inc()
}

// Answered counts one question-answering call.
func (m *Metrics) Answered(err error) {
	m.answers.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
