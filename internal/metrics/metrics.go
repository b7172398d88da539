// Package metrics exposes the Prometheus counters of the service on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	UsersCreated            prometheus.Counter
	UsersUpdated            prometheus.Counter
	UsersDeleted            prometheus.Counter
	DuplicateEmailsRejected prometheus.Counter
	ValidationFailures      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "usrinfo_users_created_total",
			Help: "Total number of users created together with their additional record",
		}),
		UsersUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "usrinfo_users_updated_total",
			Help: "Total number of successful user updates",
		}),
		UsersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "usrinfo_users_deleted_total",
			Help: "Total number of users deleted together with their additional record",
		}),
		DuplicateEmailsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "usrinfo_duplicate_emails_rejected_total",
			Help: "Total number of registrations rejected because the email was taken",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usrinfo_validation_failures_total",
			Help: "Total number of requests rejected by the request validator",
		}, []string{"route"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementUsersUpdated() {
	m.UsersUpdated.Inc()
}

func (m *Metrics) IncrementUsersDeleted() {
	m.UsersDeleted.Inc()
}

func (m *Metrics) IncrementDuplicateEmailsRejected() {
	m.DuplicateEmailsRejected.Inc()
}

func (m *Metrics) IncrementValidationFailures(route string) {
	m.ValidationFailures.WithLabelValues(route).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
