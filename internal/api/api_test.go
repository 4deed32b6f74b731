package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pipeline"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/service"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

type recordingLauncher struct {
	store     *store.Store
	pipelines []pipeline.Pipeline
}

func (l *recordingLauncher) Start(ctx context.Context, p pipeline.Pipeline) (*store.Run, error) {
	l.pipelines = append(l.pipelines, p)
	run := &store.Run{ID: "run-" + p.Name(), Kind: p.Name(), Status: string(pipeline.StatusPending), StartedAt: time.Now().UTC()}
	return run, l.store.CreateRun(ctx, run)
}

type fixture struct {
	router   *gin.Engine
	launcher *recordingLauncher
	store    *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	st, err := store.Open(ctx, config.DatabaseConfig{Driver: store.DriverSQLite, DSN: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	mk := func(item, desc, plant string) pricing.PriceComponentRow {
		return pricing.PriceComponentRow{
			Month:           "2025-12-01",
			Item:            item,
			ItemDescription: desc,
			Plant:           plant,
			SellToBracket:   pricing.ParseTier("A"),
			Pallet:          "Full",
			FOB:             2.05,
			Delivered:       2.25,
		}
	}
	require.NoError(t, st.ReplaceComponents(ctx, []pricing.PriceComponentRow{
		mk("1001", "Whole Milk Gallon", "Boise"),
		mk("1002", "Heavy Cream Quart", "Seattle"),
	}))

	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.ReplaceObservations(ctx, []series.Observation{
		{Date: d, Value: 100, Series: "PPI", Source: series.SourceFRED},
		{Date: d, Value: 70, Series: "WTI Crude Oil", Source: series.SourceEIA},
	}))
	require.NoError(t, st.ReplaceForecasts(ctx, []forecast.Point{
		{Date: d.AddDate(0, 1, 0), Series: "PPI", Baseline: 101, Upper: 103, Lower: 99},
	}, "abc123"))

	launcher := &recordingLauncher{store: st}
	app := config.AppConfig{InputDir: t.TempDir(), OutputDir: t.TempDir(), DataDir: t.TempDir()}
	services := &Services{
		Pricing: service.NewPricingService(st, launcher, app),
		Barometer: service.NewBarometerService(st, launcher, func(force bool) *pipeline.BarometerPipeline {
			return &pipeline.BarometerPipeline{Force: force}
		}),
		Runs:    service.NewRunService(st),
		Metrics: metrics.New(),
		Ready:   st.Ping,
	}
	return &fixture{router: NewRouter(services, []string{"*"}), launcher: launcher, store: st}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPricingEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("search", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/pricing/components?descriptions=milk;cream&plant=Boise", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Columns []string   `json:"columns"`
			Rows    [][]string `json:"rows"`
			Total   int        `json:"total"`
		}
		decode(t, rec, &body)
		assert.Equal(t, pricing.OutputColumns, body.Columns)
		require.Equal(t, 1, body.Total)
		assert.Equal(t, "1001", body.Rows[0][1])
		assert.Contains(t, body.Rows[0], "2.0500")
	})

	t.Run("export", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/pricing/components/export?items=1002", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 2)
		assert.Contains(t, lines[1], "Heavy Cream Quart")
	})

	t.Run("options", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/pricing/options", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var opts struct {
			Plants []string `json:"plants"`
		}
		decode(t, rec, &opts)
		assert.Equal(t, []string{"Boise", "Seattle"}, opts.Plants)
	})

	t.Run("runs", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/pricing/derive", "")
		require.Equal(t, http.StatusAccepted, rec.Code)

		rec = f.do(t, http.MethodPost, "/api/v1/pricing/vbcs", `{"steps":["fixed","combine"]}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		var run store.Run
		decode(t, rec, &run)
		assert.Equal(t, "vbcs", run.Kind)

		require.Len(t, f.launcher.pipelines, 2)
		vbcsRun, ok := f.launcher.pipelines[1].(*pipeline.VBCSPipeline)
		require.True(t, ok)
		assert.Equal(t, []string{"fixed", "combine"}, vbcsRun.Steps)
	})

	t.Run("drive disabled", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/pricing/inputs/pull", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestBarometerEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/barometer/series", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var names struct {
		Series []string `json:"series"`
	}
	decode(t, rec, &names)
	assert.Equal(t, []string{"PPI", "WTI Crude Oil"}, names.Series)

	rec = f.do(t, http.MethodGet, "/api/v1/barometer/observations?series=PPI", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var obs struct {
		Observations []series.Observation `json:"observations"`
	}
	decode(t, rec, &obs)
	require.Len(t, obs.Observations, 1)
	assert.Equal(t, 100.0, obs.Observations[0].Value)

	rec = f.do(t, http.MethodGet, "/api/v1/barometer/forecast?series=PPI", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fc struct {
		Forecast    []forecast.Point `json:"forecast"`
		HistoryHash string           `json:"history_hash"`
	}
	decode(t, rec, &fc)
	require.Len(t, fc.Forecast, 1)
	assert.Equal(t, 103.0, fc.Forecast[0].Upper)
	assert.Equal(t, "abc123", fc.HistoryHash)

	rec = f.do(t, http.MethodPost, "/api/v1/barometer/refresh?force=true", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	bp, ok := f.launcher.pipelines[0].(*pipeline.BarometerPipeline)
	require.True(t, ok)
	assert.True(t, bp.Force)
}

func TestRunEndpoints(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/pricing/derive", "")

	rec := f.do(t, http.MethodGet, "/api/v1/runs/run-pricing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run store.Run
	decode(t, rec, &run)
	assert.Equal(t, "pending", run.Status)

	rec = f.do(t, http.MethodGet, "/api/v1/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/runs?kind=pricing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs []store.Run `json:"runs"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Runs, 1)
}

func TestHealth_Unavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&Services{Ready: func(context.Context) error { return errors.New("db down") }}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
