// Package metrics exposes the promotion metrics to Prometheus.
package metrics

import (
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

var histogramBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// New registers the collectors and returns the metrics service. Collectors that are already registered are reused.
func New(reg prometheus.Registerer) app.MetricsSvc {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heroku_deployer",
			Name:      "runs_total",
			Help:      "Count of finished promotion runs",
		}, []string{"target", "stage", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heroku_deployer",
			Name:      "run_attempts_total",
			Help:      "Count of stage attempts, including the retries",
		}, []string{"target", "stage"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heroku_deployer",
			Name:      "run_duration_seconds",
			Help:      "Duration of the executed promotion runs",
			Buckets:   histogramBuckets,
		}, []string{"target", "stage"}),
		commands: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heroku_deployer",
			Name:      "git_command_duration_seconds",
			Help:      "Latency distribution of the git commands",
			Buckets:   histogramBuckets,
		}, []string{"op", "ok"}),
	}
	m.runs = register(reg, m.runs)
	m.attempts = register(reg, m.attempts)
	m.runDuration = register(reg, m.runDuration)
	m.commands = register(reg, m.commands)
	return m
}

// register returns the collector that is actually registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// Metrics is the Prometheus implementation of app.MetricsSvc.
type Metrics struct {
	runs        *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	commands    *prometheus.HistogramVec
}

// ObserveRun counts the run. Skipped and rejected runs don't touch the duration histogram.
func (m *Metrics) ObserveRun(r app.Run) {
	stage := r.Stage
	if stage == "" {
		stage = "none"
	}
	m.runs.WithLabelValues(r.Target, stage, r.Outcome).Inc()
	if r.Attempts == 0 {
		return
	}
	m.attempts.WithLabelValues(r.Target, stage).Add(float64(r.Attempts))
	m.runDuration.WithLabelValues(r.Target, stage).Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
}

// ObserveCommand records the git command latency.
func (m *Metrics) ObserveCommand(op string, ok bool, d time.Duration) {
	status := "false"
	if ok {
		status = "true"
	}
	m.commands.WithLabelValues(op, status).Observe(d.Seconds())
}
