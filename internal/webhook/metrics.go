package webhook

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	updatesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarmbot_updates_dispatched_total",
			Help: "Webhook updates dispatched, by instance role and outcome.",
		},
		[]string{"role", "outcome"},
	)

	instancesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swarmbot_instances_created_total",
			Help: "Bot instances created from inbound traffic.",
		},
	)
)

func init() {
	prometheus.MustRegister(updatesDispatched, instancesCreated)
}

// ObserveInstanceCreated counts a newly constructed bot instance. Called by
// the registry factory wired up at startup.
func ObserveInstanceCreated() {
	instancesCreated.Inc()
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
