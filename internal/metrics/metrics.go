// Package metrics exposes solver outcomes as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/newtonkit/internal/optimization"
)

const namespace = "newtonkit"

// Collector records one observation per finished solve.
type Collector struct {
	solves     *prometheus.CounterVec
	iterations *prometheus.HistogramVec
	duration   *prometheus.HistogramVec
	residual   *prometheus.GaugeVec
}

// NewCollector creates the solver metrics and registers them with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Number of finished solves by solver and termination status.",
		}, []string{"solver", "status"}),
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_iterations",
			Help:      "Iterations taken per solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}, []string{"solver"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock time per solve.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 10, 7),
		}, []string{"solver"}),
		residual: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_residual",
			Help:      "Residual of the most recent solve.",
		}, []string{"solver"}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.solves, c.iterations, c.duration, c.residual} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Observe records a finished solve. It is safe to call on a nil Collector.
func (c *Collector) Observe(solver string, status optimization.Status, iterations int, residual float64, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.solves.WithLabelValues(solver, status.String()).Inc()
	c.iterations.WithLabelValues(solver).Observe(float64(iterations))
	c.duration.WithLabelValues(solver).Observe(elapsed.Seconds())
	c.residual.WithLabelValues(solver).Set(residual)
}
