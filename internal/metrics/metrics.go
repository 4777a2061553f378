package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the deployment metrics. A nil *Registry records nothing.
type Registry struct {
	ProvisionRequestsTotal   *prometheus.CounterVec
	ProvisionRequestDuration *prometheus.HistogramVec
	ProvisionRetriesTotal    *prometheus.CounterVec

	DeployedNodesTotal  *prometheus.CounterVec
	DeployedLinksTotal  *prometheus.CounterVec
	DeployFailuresTotal *prometheus.CounterVec
	DeployDuration      prometheus.Histogram

	PortAllocationsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}
	factory := promauto.With(r.registry)

	r.ProvisionRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonetopo_provision_requests_total",
			Help: "Requests sent to the emulation server",
		},
		[]string{"operation", "outcome"},
	)
	r.ProvisionRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gonetopo_provision_request_duration_seconds",
			Help:    "Emulation server round trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	r.ProvisionRetriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonetopo_provision_retries_total",
			Help: "Requests retried after a transient failure",
		},
		[]string{"operation"},
	)
	r.DeployedNodesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonetopo_deployed_nodes_total",
			Help: "Nodes handled by deployments",
		},
		[]string{"role", "result"},
	)
	r.DeployedLinksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonetopo_deployed_links_total",
			Help: "Links handled by deployments",
		},
		[]string{"kind", "result"},
	)
	r.DeployFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonetopo_deploy_failures_total",
			Help: "Deployments halted, by phase",
		},
		[]string{"phase"},
	)
	r.DeployDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gonetopo_deploy_duration_seconds",
			Help:    "Wall time of a whole deployment",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)
	r.PortAllocationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonetopo_port_allocations_total",
			Help: "Free port lookups, by result",
		},
		[]string{"result"},
	)
	return r
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) RecordRequest(operation string, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.ProvisionRequestsTotal.WithLabelValues(operation, outcome).Inc()
	r.ProvisionRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *Registry) RecordRetry(operation string) {
	if r == nil {
		return
	}
	r.ProvisionRetriesTotal.WithLabelValues(operation).Inc()
}

func (r *Registry) RecordNode(role string, result string) {
	if r == nil {
		return
	}
	r.DeployedNodesTotal.WithLabelValues(role, result).Inc()
}

func (r *Registry) RecordLink(kind string, result string) {
	if r == nil {
		return
	}
	r.DeployedLinksTotal.WithLabelValues(kind, result).Inc()
}

func (r *Registry) RecordFailure(phase string) {
	if r == nil {
		return
	}
	r.DeployFailuresTotal.WithLabelValues(phase).Inc()
}

func (r *Registry) RecordDeploy(duration time.Duration) {
	if r == nil {
		return
	}
	r.DeployDuration.Observe(duration.Seconds())
}

func (r *Registry) RecordPortAllocation(result string) {
	if r == nil {
		return
	}
	r.PortAllocationsTotal.WithLabelValues(result).Inc()
}
