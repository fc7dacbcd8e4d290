package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for ops audit tracking.
type Metrics struct {
	Tracked         prometheus.Counter
	Sampled         prometheus.Counter
	CooldownDropped prometheus.Counter
	PersistFailures prometheus.Counter
	CooldownState   prometheus.Gauge
}

// NewMetrics registers the ops audit metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Tracked: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheme_audit_ops_tracked_total",
			Help: "Operations audit events handed to the sink",
		}),
		Sampled: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheme_audit_ops_sampled_total",
			Help: "Operations audit events dropped by sampling",
		}),
		CooldownDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheme_audit_ops_cooldown_dropped_total",
			Help: "Operations audit events dropped while the sink was cooling down",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheme_audit_ops_persist_failures_total",
			Help: "Operations audit events the sink rejected",
		}),
		CooldownState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheme_audit_ops_cooldown_state",
			Help: "Sink cooldown state (0=writing, 1=cooling down)",
		}),
	}
}

func (m *Metrics) IncTracked() {
	if m != nil {
		m.Tracked.Inc()
	}
}

func (m *Metrics) IncSampled() {
	if m != nil {
		m.Sampled.Inc()
	}
}

func (m *Metrics) IncCooldownDropped() {
	if m != nil {
		m.CooldownDropped.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) SetCooldownState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CooldownState.Set(1)
	} else {
		m.CooldownState.Set(0)
	}
}
