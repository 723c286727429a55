// Package metrics defines the Prometheus collectors exported by Folio.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "folio"

// Metrics groups the application collectors.
type Metrics struct {
	storeMutations     *prometheus.CounterVec
	documentsProcessed *prometheus.CounterVec
	chatQueries        prometheus.Counter
	persistErrors      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		storeMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Committed workspace mutations by operation.",
		}, []string{"op"}),
		documentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents that reached a terminal processing status.",
		}, []string{"status"}),
		chatQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_queries_total",
			Help:      "Prompts sent to the assistant.",
		}),
		persistErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed collection loads and saves.",
		}, []string{"collection", "op"}),
	}
}

// Mutation records a committed store operation.
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(op).Inc()
}

// DocumentProcessed records a document reaching status.
func (m *Metrics) DocumentProcessed(status string) {
	if m == nil {
		return
	}
	m.documentsProcessed.WithLabelValues(status).Inc()
}

// ChatQuery records one assistant prompt.
func (m *Metrics) ChatQuery() {
	if m == nil {
		return
	}
	m.chatQueries.Inc()
}

// PersistError records a failed load or save of collection.
func (m *Metrics) PersistError(collection, op string) {
	if m == nil {
		return
	}
	m.persistErrors.WithLabelValues(collection, op).Inc()
}

// EventClients exports count as the number of open event streams.
func EventClients(reg prometheus.Registerer, count func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_clients",
		Help:      "Open Server-Sent Event streams.",
	}, func() float64 { return float64(count()) })
}
