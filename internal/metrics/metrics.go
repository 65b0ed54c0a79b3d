package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_admissions_total",
		Help: "Admission attempts by outcome code",
	}, []string{"outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelgen_stage_duration_seconds",
		Help:    "Duration of pipeline stages in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage", "outcome"})

	stageAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_stage_attempts_total",
		Help: "Provider call attempts by stage",
	}, []string{"stage"})

	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_jobs_finished_total",
		Help: "Jobs that reached a terminal status",
	}, []string{"status", "kind"})

	sweepRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgen_sweep_recovered_total",
		Help: "Stale pending jobs re-dispatched by the sweeper",
	})

	dispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_dispatch_failures_total",
		Help: "Failed queue dispatches by backend",
	}, []string{"backend"})
)

func Admission(outcome string) {
	admissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a stage ran; outcome is "ok" or a failure kind.
func ObserveStage(stage, outcome string, started time.Time) {
	stageDuration.WithLabelValues(stage, outcome).Observe(time.Since(started).Seconds())
}

func StageAttempt(stage string) {
	stageAttempts.WithLabelValues(stage).Inc()
}

func JobFinished(status, kind string) {
	jobsFinished.WithLabelValues(status, kind).Inc()
}

func SweepRecovered(n int) {
	sweepRecovered.Add(float64(n))
}

func DispatchFailed(backend string) {
	dispatchFailures.WithLabelValues(backend).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
