// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studyplanner"

// Metrics groups the service collectors on a private registry, so several
// instances (one per test) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	ProjectsCreated  prometheus.Counter
	ProjectsDeleted  prometheus.Counter
	Messages         *prometheus.CounterVec // labels: thread_kind, role
	RepliesScheduled prometheus.Counter
	RepliesCanceled  prometheus.Counter
	HTTPRequests     *prometheus.CounterVec // labels: method, status
}

// New creates and registers all collectors, plus the Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ProjectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_created_total",
			Help:      "Number of study projects created.",
		}),
		ProjectsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_deleted_total",
			Help:      "Number of study projects deleted.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages appended to threads.",
		}, []string{"thread_kind", "role"}),
		RepliesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_scheduled_total",
			Help:      "Simulated assistant replies scheduled.",
		}),
		RepliesCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_cancelled_total",
			Help:      "Simulated assistant replies cancelled before delivery.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ProjectsCreated,
		m.ProjectsDeleted,
		m.Messages,
		m.RepliesScheduled,
		m.RepliesCanceled,
		m.HTTPRequests,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
