package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Friction mode label values
const (
	ModeStick = "stick"
	ModeSlip  = "slip"
)

// Metrics exposes solver behaviour to Prometheus
type Metrics struct {
	Iterations   prometheus.Histogram
	Residual     prometheus.Gauge
	FrictionMode *prometheus.CounterVec
	Sweeps       prometheus.Counter
}

// NewMetrics registers the solver metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "softrigid",
			Name:      "solver_iterations",
			Help:      "Gauss-Seidel sweeps needed per solve",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		Residual: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "softrigid",
			Name:      "solver_residual",
			Help:      "Summed squared approach speed left after the last solve",
		}),
		FrictionMode: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "softrigid",
			Name:      "solver_friction_mode_total",
			Help:      "Contacts ending a solve in stick or slip",
		}, []string{"mode"}),
		Sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "softrigid",
			Name:      "solver_sweeps_total",
			Help:      "Total Gauss-Seidel sweeps run",
		}),
	}
}

func (m *Metrics) observe(res Result) {
	if m == nil {
		return
	}
	m.Iterations.Observe(float64(res.Iterations))
	m.Residual.Set(res.Residual)
	m.Sweeps.Add(float64(res.Iterations))
	m.FrictionMode.WithLabelValues(ModeStick).Add(float64(res.Sticking))
	m.FrictionMode.WithLabelValues(ModeSlip).Add(float64(res.Sliding))
}
