package coordinator

import "github.com/prometheus/client_golang/prometheus"

// metrics tracks coordinator throughput for operators (spec's "Coordinator
// metrics (state-changes processed, errors, queue depth)"). Grounded on
// core.HealthLogger's prometheus wiring: a private registry plus one gauge
// or counter per tracked quantity, registered once at construction time.
type metrics struct {
	registry *prometheus.Registry

	stateChangesProcessed prometheus.Counter
	dispatchErrors        prometheus.Counter
	notificationQueueLen  prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		stateChangesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raiden_state_changes_processed_total",
			Help: "Total number of state-changes applied by the coordinator.",
		}),
		dispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raiden_dispatch_errors_total",
			Help: "Total number of errors returned while dispatching emitted events.",
		}),
		notificationQueueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raiden_notification_queue_length",
			Help: "Current number of buffered entries in the notifications channel.",
		}),
	}
	reg.MustRegister(m.stateChangesProcessed, m.dispatchErrors, m.notificationQueueLen)
	return m
}

// Registry exposes the coordinator's prometheus registry so restapi.NewServer
// can serve it at /metrics through promhttp.HandlerFor.
func (c *Coordinator) Registry() *prometheus.Registry {
	return c.metrics.registry
}
