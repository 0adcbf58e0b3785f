package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Restore outcome labels.
const (
	RestoreOutcomeSuccess         = "success"
	RestoreOutcomePolicyViolation = "policy_violation"
	RestoreOutcomeAuthzDenied     = "authz_denied"
	RestoreOutcomeError           = "error"
)

// Audit result labels.
const (
	AuditResultLeak  = "leak"
	AuditResultClean = "clean"
	AuditResultError = "error"
)

// Metrics holds all Prometheus metrics for the redaction engine.
type Metrics struct {
	redactionsTotal  prometheus.Counter
	confidenceScores prometheus.Histogram
	tokensMinted     prometheus.Counter

	restoreTotal  *prometheus.CounterVec
	tokensMissing prometheus.Counter

	leaksFound       prometheus.Counter
	auditJobsTotal   *prometheus.CounterVec
	auditJobsDropped prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		redactionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_redactions_total",
				Help: "Number of redaction calls performed",
			},
		),

		confidenceScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "veil_model_confidence_scores",
				Help:    "Distribution of detector confidence scores",
				Buckets: []float64{0, 0.5, 0.7, 0.8, 0.9, 1.0},
			},
		),

		tokensMinted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_tokens_minted_total",
				Help: "Number of vault tokens minted",
			},
		),

		restoreTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_restore_requests_total",
				Help: "Restoration attempts partitioned by outcome",
			},
			[]string{"outcome"},
		),

		tokensMissing: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_restore_tokens_missing_total",
				Help: "Tokens that were absent from the vault at restore time",
			},
		),

		leaksFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_auditor_leaks_found_total",
				Help: "Number of residual PII leaks caught by the leak auditor",
			},
		),

		auditJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_audit_jobs_total",
				Help: "Leak-audit jobs processed partitioned by result",
			},
			[]string{"result"},
		),

		auditJobsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_audit_jobs_dropped_total",
				Help: "Leak-audit jobs dropped because the queue was full",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.redactionsTotal,
		m.confidenceScores,
		m.tokensMinted,
		m.restoreTotal,
		m.tokensMissing,
		m.leaksFound,
		m.auditJobsTotal,
		m.auditJobsDropped,
	)

	return m
}

// ObserveRedaction records one redaction call and its span confidences.
func (m *Metrics) ObserveRedaction(scores []float64) {
	if m == nil {
		return
	}
	m.redactionsTotal.Inc()
	m.tokensMinted.Add(float64(len(scores)))
	for _, score := range scores {
		m.confidenceScores.Observe(score)
	}
}

// RecordRestore records one restoration attempt by outcome label.
func (m *Metrics) RecordRestore(outcome string, missing int) {
	if m == nil {
		return
	}
	m.restoreTotal.WithLabelValues(outcome).Inc()
	if missing > 0 {
		m.tokensMissing.Add(float64(missing))
	}
}

// RecordAuditResult records one processed leak-audit job.
func (m *Metrics) RecordAuditResult(result string) {
	if m == nil {
		return
	}
	m.auditJobsTotal.WithLabelValues(result).Inc()
	if result == AuditResultLeak {
		m.leaksFound.Inc()
	}
}

// RecordAuditDropped records a job rejected by the full audit queue.
func (m *Metrics) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditJobsDropped.Inc()
}

// RegisterVaultSize exposes the live vault entry count as a gauge.
func (m *Metrics) RegisterVaultSize(size func() float64) {
	if m == nil || size == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "veil_vault_entries",
			Help: "Number of entries currently held by the token vault",
		},
		size,
	))
}

// Handler returns an HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
