package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks identifier checks, document validation outcomes and
// site access decisions. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TaxIDValidations   *prometheus.CounterVec
	DocumentsUploaded  *prometheus.CounterVec
	DocumentOutcomes   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	JobRetries         prometheus.Counter
	AccessDecisions    *prometheus.CounterVec
	DocumentsExpired   prometheus.Counter
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer
// for the process-wide /metrics endpoint.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TaxIDValidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cae_taxid_validations_total",
			Help: "Tax identifier validations by requested kind and verdict",
		}, []string{"kind", "valid"}),
		DocumentsUploaded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cae_documents_uploaded_total",
			Help: "Documents uploaded by document type",
		}, []string{"type"}),
		DocumentOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cae_document_validations_total",
			Help: "Automatic document validations by resulting status",
		}, []string{"status"}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cae_document_validation_duration_seconds",
			Help:    "Duration of a document validation job",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		JobRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "cae_validation_job_retries_total",
			Help: "Validation jobs scheduled for another attempt",
		}),
		AccessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cae_access_decisions_total",
			Help: "Site access attempts by direction, result and deny reason",
		}, []string{"direction", "result", "reason"}),
		DocumentsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "cae_documents_expired_total",
			Help: "Documents moved to EXPIRED by the expiry sweep",
		}),
	}
}

func (m *Metrics) ObserveTaxID(kind string, valid bool) {
	if m == nil {
		return
	}
	v := "false"
	if valid {
		v = "true"
	}
	m.TaxIDValidations.WithLabelValues(kind, v).Inc()
}

func (m *Metrics) IncDocumentUploaded(docType string) {
	if m == nil {
		return
	}
	m.DocumentsUploaded.WithLabelValues(docType).Inc()
}

// ObserveValidation records the outcome of a validation job.
// Call with time.Now() taken when the job started.
func (m *Metrics) ObserveValidation(status string, start time.Time) {
	if m == nil {
		return
	}
	m.DocumentOutcomes.WithLabelValues(status).Inc()
	m.ValidationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncJobRetry() {
	if m == nil {
		return
	}
	m.JobRetries.Inc()
}

func (m *Metrics) ObserveAccess(direction, result, reason string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(direction, result, reason).Inc()
}

func (m *Metrics) AddExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DocumentsExpired.Add(float64(n))
}
