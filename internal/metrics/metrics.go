// Package metrics exposes Prometheus instrumentation for audits and history
// fetches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the auditor and the history browser.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Judge call latency by check id
	JudgeLatency *prometheus.HistogramVec

	// Parsed issue outcomes by check id and status
	IssueOutcome *prometheus.CounterVec

	// Checks that could not be evaluated, by reason: "judge", "parse"
	DegradedChecks *prometheus.CounterVec

	// Documents audited and their compliance
	DocumentsAudited prometheus.Counter
	Compliance       prometheus.Histogram

	// History composite fetch latency by outcome: "ok", "error", "superseded"
	FetchLatency *prometheus.HistogramVec
}

// New registers all metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		JudgeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sowaudit_judge_duration_seconds",
			Help:    "Duration of judge calls by check",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"check"}),

		IssueOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sowaudit_issues_total",
			Help: "Parsed check outcomes by check and status",
		}, []string{"check", "status"}),

		DegradedChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sowaudit_degraded_checks_total",
			Help: "Checks recorded as failed because they could not be evaluated",
		}, []string{"reason"}),

		DocumentsAudited: f.NewCounter(prometheus.CounterOpts{
			Name: "sowaudit_documents_audited_total",
			Help: "Total number of documents audited",
		}),

		Compliance: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sowaudit_document_compliance_percent",
			Help:    "Compliance of audited documents",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		FetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sowaudit_history_fetch_duration_seconds",
			Help:    "Duration of composite stats and history fetches by outcome",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),
	}
}

// ObserveJudgeLatency records how long the judge took for one check.
func (m *Metrics) ObserveJudgeLatency(checkID string, d time.Duration) {
	if m != nil {
		m.JudgeLatency.WithLabelValues(checkID).Observe(d.Seconds())
	}
}

// IncrementIssue records one parsed issue.
func (m *Metrics) IncrementIssue(checkID, status string) {
	if m != nil {
		m.IssueOutcome.WithLabelValues(checkID, status).Inc()
	}
}

// IncrementDegraded records a check that could not be evaluated.
func (m *Metrics) IncrementDegraded(reason string) {
	if m != nil {
		m.DegradedChecks.WithLabelValues(reason).Inc()
	}
}

// ObserveDocument records one finished audit.
func (m *Metrics) ObserveDocument(compliance float64) {
	if m != nil {
		m.DocumentsAudited.Inc()
		m.Compliance.Observe(compliance)
	}
}

// ObserveFetch records one composite history fetch.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// Handler serves the metrics gathered by g. A nil g uses the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
