// Package metrics holds the Prometheus collectors for the provisioning
// pipelines and the log hub.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	StageDuration *prometheus.HistogramVec
	Pipelines     *prometheus.CounterVec
	ActiveStreams prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lighthouse_stage_duration_seconds",
				Help:    "Duration of provisioning pipeline stages in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"pipeline", "stage", "outcome"},
		),
		Pipelines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lighthouse_pipelines_total",
				Help: "Total number of provisioning pipeline runs",
			},
			[]string{"pipeline", "outcome"},
		),
		ActiveStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lighthouse_log_streams_active",
				Help: "Number of log streams with at least one subscriber",
			},
		),
	}
	reg.MustRegister(m.StageDuration, m.Pipelines, m.ActiveStreams)
	return m
}

// ObserveStage records the duration of one stage.
func (m *Metrics) ObserveStage(pipeline, stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(pipeline, stage, outcome(err)).Observe(time.Since(start).Seconds())
}

// CountPipeline records a finished pipeline run.
func (m *Metrics) CountPipeline(pipeline string, err error) {
	if m == nil {
		return
	}
	m.Pipelines.WithLabelValues(pipeline, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
