// Package metrics records task and pipeline outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MD-Studio/studiobuild/internal/event"
)

// Outcome label values
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Collector holds the studiobuild collectors on a private registry.
type Collector struct {
	registry  *prometheus.Registry
	taskRuns  *prometheus.CounterVec
	taskTime  *prometheus.HistogramVec
	sequences *prometheus.CounterVec
	watches   prometheus.Counter
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studiobuild_task_runs_total",
			Help: "Task invocations by task name and outcome.",
		}, []string{"task", "outcome"}),
		taskTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studiobuild_task_duration_seconds",
			Help:    "Task run time by task name.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"task"}),
		sequences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studiobuild_sequences_total",
			Help: "Top-level sequence runs by outcome.",
		}, []string{"outcome"}),
		watches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studiobuild_watch_rebuilds_total",
			Help: "Rebuilds triggered by source changes.",
		}),
	}
	c.registry.MustRegister(c.taskRuns, c.taskTime, c.sequences, c.watches)
	return c
}

// Subscribe feeds the collectors from bus. It returns the subscription ID.
func (c *Collector) Subscribe(bus *event.Bus) string {
	return bus.SubscribeAll(c.observe)
}

func (c *Collector) observe(e event.Event) {
	switch ev := e.(type) {
	case event.TaskCompletedEvent:
		c.taskRuns.WithLabelValues(ev.Task, OutcomeSucceeded).Inc()
		c.taskTime.WithLabelValues(ev.Task).Observe(ev.Duration.Seconds())
	case event.TaskFailedEvent:
		c.taskRuns.WithLabelValues(ev.Task, OutcomeFailed).Inc()
		c.taskTime.WithLabelValues(ev.Task).Observe(ev.Duration.Seconds())
	case event.SequenceCompletedEvent:
		// Composite tasks report through their task events
		if ev.Name != "" {
			return
		}
		outcome := OutcomeSucceeded
		if !ev.Succeeded() {
			outcome = OutcomeFailed
		}
		c.sequences.WithLabelValues(outcome).Inc()
	case event.WatchTriggeredEvent:
		c.watches.Inc()
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
