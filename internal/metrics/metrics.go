// Package metrics exposes job counters and gauges to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ytget/yt-webdl/internal/model"
)

// Metric naming
const (
	Namespace = "ytwebdl"
	Subsystem = "jobs"
)

// Collector owns a private registry with the job metrics
type Collector struct {
	registry    *prometheus.Registry
	submitted   prometheus.Counter
	transitions *prometheus.CounterVec
	finished    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New creates a collector. active reports the number of jobs a worker is
// currently driving and is sampled on every scrape.
func New(active func() float64) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "submitted_total",
			Help:      "Jobs accepted by the service.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "transitions_total",
			Help:      "Job status transitions by target status.",
		}, []string{"status"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "finished_total",
			Help:      "Jobs that reached a terminal status.",
		}, []string{"status", "quality"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "duration_seconds",
			Help:      "Time from submission to terminal status.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"status"}),
	}

	c.registry.MustRegister(
		c.submitted,
		c.transitions,
		c.finished,
		c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if active != nil {
		c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "active",
			Help:      "Jobs currently driven by a worker.",
		}, active))
	}
	return c
}

// Observe records one job status transition
func (c *Collector) Observe(snap model.Snapshot) {
	c.transitions.WithLabelValues(snap.Status.String()).Inc()

	switch {
	case snap.Status == model.StatusQueued:
		c.submitted.Inc()
	case snap.Status.IsTerminal():
		c.finished.WithLabelValues(snap.Status.String(), string(snap.Quality)).Inc()
		if snap.FinishedAt != nil {
			c.duration.WithLabelValues(snap.Status.String()).Observe(snap.FinishedAt.Sub(snap.CreatedAt).Seconds())
		}
	}
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ActiveJobs counts active jobs in list
func ActiveJobs(list func() []model.Snapshot) func() float64 {
	return func() float64 {
		n := 0
		for _, snap := range list() {
			if snap.Status.IsActive() {
				n++
			}
		}
		return float64(n)
	}
}
