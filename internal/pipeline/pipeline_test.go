package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

type memoryRuns struct {
	mu       sync.Mutex
	runs     map[string]store.Run
	statuses []string
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: make(map[string]store.Run)}
}

func (m *memoryRuns) CreateRun(_ context.Context, r *store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = *r
	m.statuses = append(m.statuses, r.Status)
	return nil
}

func (m *memoryRuns) UpdateRun(_ context.Context, r *store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[r.ID]; !ok {
		return store.ErrNotFound
	}
	m.runs[r.ID] = *r
	m.statuses = append(m.statuses, r.Status)
	return nil
}

func (m *memoryRuns) get(id string) store.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id]
}

type fakePipeline struct {
	validateErr error
	errs        []error
	calls       int
	out         *Output
}

func (f *fakePipeline) Name() string { return "fake" }

func (f *fakePipeline) Validate(context.Context) error { return f.validateErr }

func (f *fakePipeline) Execute(context.Context) (*Output, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.out, nil
}

type fakePublisher struct {
	files []string
}

func (f *fakePublisher) Publish(_ context.Context, runID string, files []string) ([]string, error) {
	f.files = files
	keys := make([]string, len(files))
	for i, file := range files {
		keys[i] = "vbcs/" + runID + "/" + filepath.Base(file)
	}
	return keys, nil
}

func testConfig() PipelineConfig {
	return PipelineConfig{RunTimeout: time.Minute, RetryAttempts: 3}
}

func TestOrchestrator_Run(t *testing.T) {
	runs := newMemoryRuns()
	m := metrics.New()
	o := NewOrchestrator(runs, testConfig(), WithMetrics(m))
	p := &fakePipeline{out: &Output{Files: []string{"/out/a.csv"}, Rows: 7, Warnings: []string{"w"}}}

	run, err := o.Run(context.Background(), p)
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "fake", run.Kind)
	assert.Equal(t, string(StatusCompleted), run.Status)
	assert.Equal(t, 7, run.TotalRows)
	assert.Equal(t, 1, run.Warnings)
	assert.Equal(t, []string{"/out/a.csv"}, run.Outputs)
	require.NotNil(t, run.CompletedAt)
	assert.Equal(t, []string{"pending", "processing", "completed"}, runs.statuses)
	assert.Equal(t, run.Status, runs.get(run.ID).Status)
}

func TestOrchestrator_Failures(t *testing.T) {
	tests := []struct {
		name      string
		pipeline  *fakePipeline
		wantCalls int
		wantErr   string
	}{
		{
			name:      "validation",
			pipeline:  &fakePipeline{validateErr: fmt.Errorf("%w: Pallet_Fee.csv", refdata.ErrMissingInput)},
			wantCalls: 0,
			wantErr:   "validation failed",
		},
		{
			name:      "missing input is not retried",
			pipeline:  &fakePipeline{errs: []error{fmt.Errorf("%w: x.csv", refdata.ErrMissingInput)}},
			wantCalls: 1,
			wantErr:   "x.csv",
		},
		{
			name:      "retries exhausted",
			pipeline:  &fakePipeline{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}},
			wantCalls: 3,
			wantErr:   "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := newMemoryRuns()
			o := NewOrchestrator(runs, testConfig())

			run, err := o.Run(context.Background(), tt.pipeline)
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, tt.pipeline.calls)
			assert.Equal(t, string(StatusFailed), run.Status)
			assert.Contains(t, run.ErrorMessage, tt.wantErr)
			assert.Equal(t, string(StatusFailed), runs.get(run.ID).Status)
		})
	}
}

func TestOrchestrator_RetryRecovers(t *testing.T) {
	p := &fakePipeline{errs: []error{errors.New("timeout")}, out: &Output{Rows: 1}}
	run, err := NewOrchestrator(newMemoryRuns(), testConfig()).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, string(StatusCompleted), run.Status)
}

func TestOrchestrator_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	o := NewOrchestrator(newMemoryRuns(), testConfig(), WithPublisher(pub))
	p := &fakePipeline{out: &Output{Files: []string{"/out/batch_vbcs.csv", "/out/winco_vbcs.csv"}}}

	run, err := o.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p.out.Files, pub.files)
	assert.Equal(t, []string{"vbcs/" + run.ID + "/batch_vbcs.csv", "vbcs/" + run.ID + "/winco_vbcs.csv"}, run.Outputs)
}

func TestOrchestrator_Start(t *testing.T) {
	runs := newMemoryRuns()
	o := NewOrchestrator(runs, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	snapshot, err := o.Start(ctx, &fakePipeline{out: &Output{Rows: 3}})
	require.NoError(t, err)
	cancel()
	assert.Equal(t, string(StatusPending), snapshot.Status)

	o.Wait()
	final := runs.get(snapshot.ID)
	assert.Equal(t, string(StatusCompleted), final.Status)
	assert.Equal(t, 3, final.TotalRows)
}

type fakeFetcher struct {
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, specs []series.Spec) (*series.FetchResult, error) {
	f.calls++
	res := &series.FetchResult{}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, spec := range specs {
		if i == len(specs)-1 {
			res.Failed = append(res.Failed, spec.Label())
			continue
		}
		res.Fetched = append(res.Fetched, spec.Name)
		for m := 0; m < 48; m++ {
			res.Observations = append(res.Observations, series.Observation{
				Date:   start.AddDate(0, m, 0),
				Value:  100 * math.Pow(1.01, float64(m)),
				Series: spec.Name,
				Source: spec.Source,
			})
		}
	}
	return res, nil
}

type memoryBarometer struct {
	obs    []series.Observation
	points []forecast.Point
	hash   string
}

func (m *memoryBarometer) ReplaceObservations(_ context.Context, obs []series.Observation) error {
	m.obs = obs
	return nil
}

func (m *memoryBarometer) ReplaceForecasts(_ context.Context, points []forecast.Point, hash string) error {
	m.points, m.hash = points, hash
	return nil
}

func TestBarometerPipeline(t *testing.T) {
	dir := t.TempDir()
	cfg := config.BarometerConfig{DataDir: dir, RefreshDays: 15, Horizon: 12, Workers: 2}
	catalog := []series.Spec{
		{Name: "PPI", Source: series.SourceFRED, ID: "PPIACO"},
		{Name: "Diesel", Source: series.SourceFRED, ID: "GASDESW"},
		{Name: "WTI", Source: series.SourceEIA, Route: "petroleum/pri/spt"},
	}
	fetcher := &fakeFetcher{}
	st := &memoryBarometer{}
	m := metrics.New()
	p := &BarometerPipeline{Config: cfg, Fetcher: fetcher, Catalog: catalog, Store: st, Metrics: m}

	require.NoError(t, p.Validate(context.Background()))
	out, err := p.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []string{cfg.ObservationsPath(), cfg.ForecastPath()}, out.Files)
	assert.Len(t, st.obs, 96)
	assert.Len(t, st.points, 24)
	assert.NotEmpty(t, st.hash)
	assert.Equal(t, 96+24, out.Rows)
	assert.Contains(t, out.Warnings, "series fetch failed: WTI (EIA)")
	assert.FileExists(t, filepath.Join(dir, series.File))
	assert.FileExists(t, filepath.Join(dir, forecast.File))

	t.Run("fresh files are left alone", func(t *testing.T) {
		out, err := p.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
		assert.Empty(t, out.Files)
	})

	t.Run("stale history is refetched", func(t *testing.T) {
		stale := *p
		stale.Now = func() time.Time { return time.Now().Add(16 * 24 * time.Hour) }
		_, err := stale.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, fetcher.calls)
	})

	t.Run("forecast only", func(t *testing.T) {
		only := &BarometerPipeline{Config: cfg, SkipFetch: true, Force: true}
		require.NoError(t, only.Validate(context.Background()))
		out, err := only.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{cfg.ForecastPath()}, out.Files)
	})
}

func TestBarometerPipeline_NoData(t *testing.T) {
	cfg := config.BarometerConfig{DataDir: t.TempDir(), RefreshDays: 15, Horizon: 12}
	p := &BarometerPipeline{
		Config:  cfg,
		Fetcher: &fakeFetcher{},
		Catalog: []series.Spec{{Name: "WTI", Source: series.SourceEIA, Route: "petroleum/pri/spt"}},
	}
	_, err := p.Execute(context.Background())
	assert.ErrorIs(t, err, series.ErrNoData)

	skip := &BarometerPipeline{Config: cfg, SkipFetch: true}
	assert.ErrorIs(t, skip.Validate(context.Background()), series.ErrNoData)
}

func TestInputValidation(t *testing.T) {
	dir := t.TempDir()

	err := (&PricingPipeline{InputDir: dir, OutputDir: dir}).Validate(context.Background())
	assert.ErrorIs(t, err, refdata.ErrMissingInput)

	err = (&VBCSPipeline{InputDir: dir, OutputDir: dir, Steps: []string{StepFixed}}).Validate(context.Background())
	assert.ErrorIs(t, err, refdata.ErrMissingInput)

	err = (&VBCSPipeline{InputDir: dir, OutputDir: dir, Steps: []string{"bulk"}}).Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown VBCS step")

	assert.NoError(t, (&VBCSPipeline{InputDir: dir, OutputDir: dir, Steps: []string{StepCombine}}).Validate(context.Background()))
}
