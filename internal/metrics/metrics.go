package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	FailureTransient = "transient"
	FailurePermanent = "permanent"
)

var (
	// Scheduler
	unitsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_units_published_total",
			Help: "Total number of delivery units published.",
		},
		[]string{"shape"},
	)
	unitsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialflow_units_failed_total",
			Help: "Total number of failed publish attempts by shape and failure kind.",
		},
		[]string{"shape", "kind"},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "socialflow_scheduler_tick_seconds",
			Help:    "Time spent processing one scheduler tick (seconds).",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
	ticksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "socialflow_scheduler_ticks_skipped_total",
			Help: "Ticks skipped because another instance held the tick lease.",
		},
	)

	// Tokens
	pageTokenStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "socialflow_page_token_status",
			Help: "Number of pages per token status after the last check.",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			unitsPublished,
			unitsFailed,
			tickDuration,
			ticksSkipped,
			pageTokenStatus,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncUnitPublished(shape string) { unitsPublished.WithLabelValues(shape).Inc() }

func IncUnitFailed(shape string, permanent bool) {
	kind := FailureTransient
	if permanent {
		kind = FailurePermanent
	}
	unitsFailed.WithLabelValues(shape, kind).Inc()
}

func ObserveTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }
func IncTickSkipped()             { ticksSkipped.Inc() }

// SetTokenStatusCounts replaces the per-status gauge with the latest check result.
func SetTokenStatusCounts(counts map[string]int) {
	pageTokenStatus.Reset()
	for status, n := range counts {
		pageTokenStatus.WithLabelValues(status).Set(float64(n))
	}
}
