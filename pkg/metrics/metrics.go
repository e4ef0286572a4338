// Package metrics counts compile runs and writes them in the Prometheus
// text format, for collection by a node exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics of one cvhdl invocation. It is safe for
// concurrent use.
type Recorder struct {
	registry    *prometheus.Registry
	compiles    *prometheus.CounterVec
	functions   prometheus.Counter
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvhdl_compiles_total",
			Help: "Source files compiled, by result.",
		}, []string{"result"}),
		functions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cvhdl_functions_total",
			Help: "Entities generated.",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvhdl_diagnostics_total",
			Help: "Diagnostics reported, by severity.",
		}, []string{"severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cvhdl_compile_seconds",
			Help:    "Time spent compiling one source file.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	r.registry.MustRegister(r.compiles, r.functions, r.diagnostics, r.duration)
	return r
}

// ObserveCompile records one compiled file. A non-nil err counts as a
// failed compile with one error diagnostic.
func (r *Recorder) ObserveCompile(functions, warnings int, err error, elapsed time.Duration) {
	if err != nil {
		r.compiles.WithLabelValues("error").Inc()
		r.diagnostics.WithLabelValues("error").Inc()
	} else {
		r.compiles.WithLabelValues("ok").Inc()
		r.functions.Add(float64(functions))
	}
	r.diagnostics.WithLabelValues("warning").Add(float64(warnings))
	r.duration.Observe(elapsed.Seconds())
}

// ObserveLint records lint findings by severity.
func (r *Recorder) ObserveLint(severity string, n int) {
	r.diagnostics.WithLabelValues(severity).Add(float64(n))
}

// Registry exposes the underlying registry, for tests and embedding.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
