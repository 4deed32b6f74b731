package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("pricing", "completed", time.Now().Add(-time.Second), 120)
	m.ObserveRun("pricing", "failed", time.Now(), 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("pricing", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("pricing", "failed")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.RowsWritten.WithLabelValues("pricing")))
}

func TestObserveFetchAndForecast(t *testing.T) {
	m := New()
	m.ObserveFetch("FRED", 14, 0)
	m.ObserveFetch("EIA", 4, 1)
	m.ObserveForecast(48, 1, 2, false)
	m.ObserveForecast(48, 1, 2, true)

	assert.Equal(t, 14.0, testutil.ToFloat64(m.SeriesFetched.WithLabelValues("FRED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeriesFailed.WithLabelValues("EIA")))
	assert.Equal(t, 96.0, testutil.ToFloat64(m.ForecastPoints))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("hit")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("pricing", "completed", time.Now(), 1)
		m.ObserveFetch("FRED", 1, 0)
		m.ObserveForecast(1, 0, 0, false)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun("barometer", "completed", time.Now(), 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pricing_pipeline_runs_total{kind="barometer",status="completed"} 1`)
}
