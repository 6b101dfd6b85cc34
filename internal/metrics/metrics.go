package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jbmon"

// Metrics groups the collectors exported on /metrics.
// A nil *Metrics is valid and records nothing, which keeps tests and
// one-off tools free of registry plumbing.
type Metrics struct {
	cliCommands    *prometheus.CounterVec
	cliDuration    *prometheus.HistogramVec
	instanceStatus *prometheus.CounterVec
	sweepDuration  *prometheus.HistogramVec
	lastSweep      *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cliCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cli_commands_total",
			Help:      "Management CLI invocations by command kind and outcome.",
		}, []string{"kind", "outcome"}),
		cliDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cli_command_duration_seconds",
			Help:      "Wall time of management CLI invocations.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"kind"}),
		instanceStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_status_total",
			Help:      "Instance check results by environment and status.",
		}, []string{"environment", "status"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of full fleet sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"environment", "trigger"}),
		lastSweep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed sweep.",
		}, []string{"environment"}),
	}

	reg.MustRegister(m.cliCommands, m.cliDuration, m.instanceStatus, m.sweepDuration, m.lastSweep)
	return m
}

// ObserveCommand records one CLI invocation.
func (m *Metrics) ObserveCommand(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.cliCommands.WithLabelValues(kind, outcome).Inc()
	m.cliDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveInstance records one instance check result.
func (m *Metrics) ObserveInstance(env, status string) {
	if m == nil {
		return
	}
	m.instanceStatus.WithLabelValues(env, status).Inc()
}

// ObserveSweep records a completed sweep.
func (m *Metrics) ObserveSweep(env, trigger string, d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.sweepDuration.WithLabelValues(env, trigger).Observe(d.Seconds())
	m.lastSweep.WithLabelValues(env).Set(float64(finished.Unix()))
}
