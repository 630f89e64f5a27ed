package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsIngested     *prometheus.CounterVec
	payloadsRejected    *prometheus.CounterVec
	interactionsRouted  *prometheus.CounterVec
	storeErrors         *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec
	deliveriesTotal     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalflow_signals_ingested_total",
				Help: "Total number of signals normalized and stored",
			},
			[]string{"source", "instrument"},
		),
		payloadsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalflow_payloads_rejected_total",
				Help: "Total number of inbound payloads rejected by the normalizer",
			},
			[]string{"source", "reason"},
		),
		interactionsRouted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalflow_interactions_routed_total",
				Help: "Total number of interaction identifiers routed",
			},
			[]string{"action"},
		),
		storeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalflow_store_errors_total",
				Help: "Total number of keyed store backend errors",
			},
			[]string{"op"},
		),
		collaboratorLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalflow_collaborator_duration_seconds",
				Help:    "Duration of analysis collaborator calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "outcome"},
		),
		deliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalflow_deliveries_total",
				Help: "Total number of outbound view deliveries",
			},
			[]string{"outcome"},
		),
	}
}

// RecordSignalIngested records a normalized signal stored for an owner.
func (r *Recorder) RecordSignalIngested(source, instrument string) {
	r.signalsIngested.WithLabelValues(source, instrument).Inc()
}

// RecordPayloadRejected records a rejected inbound payload.
func (r *Recorder) RecordPayloadRejected(source, reason string) {
	r.payloadsRejected.WithLabelValues(source, reason).Inc()
}

// RecordInteractionRouted records a routed interaction by action name.
func (r *Recorder) RecordInteractionRouted(action string) {
	r.interactionsRouted.WithLabelValues(action).Inc()
}

// RecordStoreError records a backend error for an operation.
func (r *Recorder) RecordStoreError(op string) {
	r.storeErrors.WithLabelValues(op).Inc()
}

// RecordCollaboratorLatency records a collaborator call duration.
func (r *Recorder) RecordCollaboratorLatency(kind, outcome string, seconds float64) {
	r.collaboratorLatency.WithLabelValues(kind, outcome).Observe(seconds)
}

// RecordDelivery records an outbound delivery outcome.
func (r *Recorder) RecordDelivery(outcome string) {
	r.deliveriesTotal.WithLabelValues(outcome).Inc()
}
