package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric of the engine.
const Namespace = "home_script"

// Registry wraps a dedicated Prometheus registry with the Go runtime and
// process collectors pre-registered.
type Registry struct {
	prometheusRegistry *prometheus.Registry
}

// NewRegistry creates a registry with runtime collectors.
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()
	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{prometheusRegistry: prometheusRegistry}
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler returns the HTTP handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}

// MustRegister registers collectors, panicking on metric name collisions.
// Collisions are programming errors, so registration happens at startup.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.prometheusRegistry.MustRegister(cs...)
}
