package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/pidsim/internal/pid"
)

// Collector receives a summary of every finished run.
type Collector interface {
	ObserveRun(v pid.Variant, metrics map[string]float64)
}

type noopCollector struct{}

// Noop returns a collector that discards all runs.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) ObserveRun(pid.Variant, map[string]float64) {}

// PrometheusCollector keeps per-variant run counters and the last run's
// tracking metrics in a Prometheus registry.
type PrometheusCollector struct {
	reg        *prometheus.Registry
	runs       *prometheus.CounterVec
	finalError *prometheus.GaugeVec
	overshoot  *prometheus.GaugeVec
	iae        *prometheus.HistogramVec
}

func NewPrometheusCollector() (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pidsim_runs_total",
			Help: "Number of completed controller runs per variant.",
		}, []string{"variant"}),
		finalError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pidsim_final_error",
			Help: "Setpoint minus actual after the last step of the most recent run.",
		}, []string{"variant"}),
		overshoot: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pidsim_overshoot",
			Help: "Largest excursion past the setpoint in the most recent run.",
		}, []string{"variant"}),
		iae: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pidsim_iae",
			Help:    "Integral of absolute error per run.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"variant"}),
	}
	for _, col := range []prometheus.Collector{c.runs, c.finalError, c.overshoot, c.iae} {
		if err := c.reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *PrometheusCollector) ObserveRun(v pid.Variant, metrics map[string]float64) {
	name := v.String()
	c.runs.WithLabelValues(name).Inc()
	if val, ok := metrics["final_error"]; ok {
		c.finalError.WithLabelValues(name).Set(val)
	}
	if val, ok := metrics["overshoot"]; ok {
		c.overshoot.WithLabelValues(name).Set(val)
	}
	if val, ok := metrics["iae"]; ok {
		c.iae.WithLabelValues(name).Observe(val)
	}
}

func (c *PrometheusCollector) Gatherer() prometheus.Gatherer { return c.reg }

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node exporter textfile collector.
func (c *PrometheusCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
