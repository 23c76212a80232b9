package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcode_jobs_started_total",
		Help: "Number of transcode jobs accepted.",
	})

	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcode_jobs_finished_total",
		Help: "Number of transcode jobs that reached a terminal status.",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transcode_stage_duration_seconds",
		Help:    "Wall time spent in each pipeline stage.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	ActivePipelines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcode_active_pipelines",
		Help: "Pipelines currently running.",
	})

	ProbeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcode_probe_failures_total",
		Help: "Number of best-effort probe runs that failed.",
	})
)
