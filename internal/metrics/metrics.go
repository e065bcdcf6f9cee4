// Package metrics exposes pipeline and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"sublearn/internal/domain"
	"sublearn/internal/filter"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sublearn"

// Metrics records chunk pipeline activity. It satisfies pipeline.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	tasksInFlight prometheus.Gauge
	tasksTotal    *prometheus.CounterVec
	stageSeconds  *prometheus.HistogramVec
	segments      *prometheus.CounterVec
	words         *prometheus.CounterVec
	apiSeconds    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Chunk tasks currently running.",
		}),
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Chunk tasks finished, by final status.",
		}, []string{"status"}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 180, 600},
		}, []string{"stage"}),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_segments_total",
			Help:      "Filtered subtitle segments, by bucket.",
		}, []string{"bucket"}),
		words: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_words_total",
			Help:      "Classified words, by status.",
		}, []string{"status"}),
		apiSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tasksInFlight,
		m.tasksTotal,
		m.stageSeconds,
		m.segments,
		m.words,
		m.apiSeconds,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TaskStarted() {
	m.tasksInFlight.Inc()
}

func (m *Metrics) TaskFinished(status domain.TaskStatus) {
	m.tasksInFlight.Dec()
	m.tasksTotal.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) StageFinished(stage domain.Stage, elapsed time.Duration) {
	m.stageSeconds.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

func (m *Metrics) BucketsObserved(stats filter.Stats) {
	m.segments.WithLabelValues(string(domain.BucketLearning)).Add(float64(stats.LearningCount))
	m.segments.WithLabelValues(string(domain.BucketBlocker)).Add(float64(stats.BlockerCount))
	m.segments.WithLabelValues(string(domain.BucketEmpty)).Add(float64(stats.EmptyCount))
	m.words.WithLabelValues(string(domain.WordActive)).Add(float64(stats.ActiveWords))
	m.words.WithLabelValues(string(domain.WordKnown)).Add(float64(stats.KnownWords))
	m.words.WithLabelValues(string(domain.WordBlocked)).Add(float64(stats.BlockedWords))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware times every API request except the scrape endpoint
func (m *Metrics) Middleware(metricsPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == metricsPath {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			code := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					code = he.Code
				} else {
					code = http.StatusInternalServerError
				}
			}
			m.apiSeconds.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(code)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
