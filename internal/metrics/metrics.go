// ABOUTME: Prometheus metrics for message processing, memory, and schedulers
// ABOUTME: Registered once via promauto at construction
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	MessagesTotal      *prometheus.CounterVec
	MessageDuration    prometheus.Histogram
	FactsStoredTotal   prometheus.Counter
	FactsDedupedTotal  prometheus.Counter
	RetrievalsTotal    prometheus.Counter
	RemindersSentTotal prometheus.Counter
	TrainingJobsTotal  *prometheus.CounterVec
	ProviderFailures   *prometheus.CounterVec
}

// New creates and registers all metrics with the given registerer. Pass a
// fresh registry in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jek_messages_total",
				Help: "Total number of inbound messages processed",
			},
			[]string{"handler"},
		),
		MessageDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jek_message_duration_seconds",
				Help:    "Duration of message-processing turns in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		FactsStoredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jek_facts_stored_total",
				Help: "Total number of facts persisted",
			},
		),
		FactsDedupedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jek_facts_deduped_total",
				Help: "Total number of candidate facts discarded as duplicates",
			},
		),
		RetrievalsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jek_retrievals_total",
				Help: "Total number of semantic retrieval queries",
			},
		),
		RemindersSentTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jek_reminders_sent_total",
				Help: "Total number of reminder dispatches",
			},
		),
		TrainingJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jek_training_jobs_total",
				Help: "Total number of fine-tune jobs by outcome",
			},
			[]string{"outcome"},
		),
		ProviderFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jek_provider_failures_total",
				Help: "Total number of provider call failures by kind",
			},
			[]string{"kind"},
		),
	}
}
