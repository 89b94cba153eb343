// Package metrics exposes chat command and delivery counters in Prometheus
// format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records command handling outcomes.
type Metrics interface {
	IncCommand(verb, outcome string)
	ObserveStage(stage string, durationSeconds float64)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncCommand(string, string)    {}
func (Noop) ObserveStage(string, float64) {}

// Prom implements Metrics backed by a private Prometheus registry.
type Prom struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
	stages   *prometheus.HistogramVec
}

var _ Metrics = (*Prom)(nil)

// NewProm builds the collectors and registers them together with the Go
// runtime and process collectors.
func NewProm(namespace string) *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled by verb and outcome",
		}, []string{"verb", "outcome"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Map delivery stage latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
	}
	p.registry.MustRegister(
		p.commands,
		p.stages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prom) IncCommand(verb, outcome string) {
	p.commands.WithLabelValues(verb, outcome).Inc()
}

func (p *Prom) ObserveStage(stage string, durationSeconds float64) {
	p.stages.WithLabelValues(stage).Observe(durationSeconds)
}

// Handler returns an HTTP handler for /metrics.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
