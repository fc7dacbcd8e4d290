package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scheme module.
type Metrics struct {
	// Façade call latency by operation
	OperationLatency *prometheus.HistogramVec

	// Façade failures by operation and error code
	OperationErrors *prometheus.CounterVec

	// Eligible programs returned per FindEligible call
	EligiblePrograms prometheus.Histogram

	// Mapping results by completeness
	MappingOutcomes *prometheus.CounterVec

	// Catalog refreshes by source and result
	RefreshTotal *prometheus.CounterVec

	// Currently published catalog
	CatalogVersion  prometheus.Gauge
	CatalogPrograms prometheus.Gauge

	// 1 while the primary source's breaker is open
	FallbackActive prometheus.Gauge
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the scheme metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheme_operation_duration_seconds",
			Help:    "Duration of matching service operations",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),

		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheme_operation_errors_total",
			Help: "Failed matching service operations by error code",
		}, []string{"operation", "code"}),

		EligiblePrograms: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheme_eligible_programs",
			Help:    "Number of eligible programs returned per match",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),

		MappingOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheme_mapping_outcomes_total",
			Help: "Form mapping results by completeness",
		}, []string{"complete"}),

		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheme_catalog_refresh_total",
			Help: "Catalog refresh attempts by source and result",
		}, []string{"source", "result"}),

		CatalogVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheme_catalog_version",
			Help: "Version of the currently published catalog snapshot",
		}),

		CatalogPrograms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheme_catalog_programs",
			Help: "Number of programs in the currently published catalog snapshot",
		}),

		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheme_catalog_fallback_active",
			Help: "Whether the catalog is being served from the fallback source (0=primary, 1=fallback)",
		}),
	}
}

// ObserveOperation records the duration of one façade call.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementError records a failed façade call.
func (m *Metrics) IncrementError(operation, code string) {
	if m != nil {
		m.OperationErrors.WithLabelValues(operation, code).Inc()
	}
}

// ObserveEligible records how many programs a match returned.
func (m *Metrics) ObserveEligible(n int) {
	if m != nil {
		m.EligiblePrograms.Observe(float64(n))
	}
}

// IncrementMapping records a mapping outcome.
func (m *Metrics) IncrementMapping(complete bool) {
	if m == nil {
		return
	}
	label := "false"
	if complete {
		label = "true"
	}
	m.MappingOutcomes.WithLabelValues(label).Inc()
}

// IncrementRefresh records a refresh attempt.
func (m *Metrics) IncrementRefresh(source, result string) {
	if m != nil {
		m.RefreshTotal.WithLabelValues(source, result).Inc()
	}
}

// SetCatalog records the published snapshot.
func (m *Metrics) SetCatalog(version uint64, programs int) {
	if m != nil {
		m.CatalogVersion.Set(float64(version))
		m.CatalogPrograms.Set(float64(programs))
	}
}

// SetFallbackActive sets the fallback gauge.
func (m *Metrics) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
