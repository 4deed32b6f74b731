package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pricing"

// Metrics holds the collectors for fetch, forecast and pipeline runs.
type Metrics struct {
	registry *prometheus.Registry

	SeriesFetched   *prometheus.CounterVec
	SeriesFailed    *prometheus.CounterVec
	ForecastPoints  prometheus.Counter
	ForecastSkipped prometheus.Counter
	ForecastFailed  prometheus.Counter
	CacheHits       *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	RowsWritten     *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SeriesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barometer",
			Name:      "series_fetched_total",
			Help:      "Series fetched successfully, by source.",
		}, []string{"source"}),
		SeriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barometer",
			Name:      "series_failed_total",
			Help:      "Series that returned no data or failed, by source.",
		}, []string{"source"}),
		ForecastPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barometer",
			Name:      "forecast_points_total",
			Help:      "Forecast points generated.",
		}),
		ForecastSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barometer",
			Name:      "forecast_skipped_total",
			Help:      "Series skipped for insufficient history.",
		}),
		ForecastFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barometer",
			Name:      "forecast_fallbacks_total",
			Help:      "Model fits that fell back to a simpler estimate.",
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "barometer",
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by kind and final status.",
		}, []string{"kind", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300, 900},
		}, []string{"kind"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_written_total",
			Help:      "Rows written to output files by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SeriesFetched,
		m.SeriesFailed,
		m.ForecastPoints,
		m.ForecastSkipped,
		m.ForecastFailed,
		m.CacheHits,
		m.Runs,
		m.RunDuration,
		m.RowsWritten,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(kind, status string, started time.Time, rows int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(kind, status).Inc()
	m.RunDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	if rows > 0 {
		m.RowsWritten.WithLabelValues(kind).Add(float64(rows))
	}
}

// ObserveFetch records per-source fetch outcomes.
func (m *Metrics) ObserveFetch(source string, fetched, failed int) {
	if m == nil {
		return
	}
	m.SeriesFetched.WithLabelValues(source).Add(float64(fetched))
	m.SeriesFailed.WithLabelValues(source).Add(float64(failed))
}

// ObserveForecast records a forecast run.
func (m *Metrics) ObserveForecast(points, skipped, failed int, cached bool) {
	if m == nil {
		return
	}
	result := "miss"
	if cached {
		result = "hit"
	}
	m.CacheHits.WithLabelValues(result).Inc()
	m.ForecastPoints.Add(float64(points))
	m.ForecastSkipped.Add(float64(skipped))
	m.ForecastFailed.Add(float64(failed))
}
