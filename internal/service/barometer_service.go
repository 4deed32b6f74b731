package service

import (
	"context"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pipeline"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

// BarometerRepository reads the persisted indicator snapshots.
type BarometerRepository interface {
	SeriesNames(ctx context.Context) ([]string, error)
	Observations(ctx context.Context, names ...string) ([]series.Observation, error)
	Forecasts(ctx context.Context, name string) ([]forecast.Point, error)
	ForecastHash(ctx context.Context) (string, error)
}

type BarometerService struct {
	repo        BarometerRepository
	launcher    RunLauncher
	newPipeline func(force bool) *pipeline.BarometerPipeline
}

// NewBarometerService builds refresh runs with newPipeline.
func NewBarometerService(repo BarometerRepository, launcher RunLauncher, newPipeline func(force bool) *pipeline.BarometerPipeline) *BarometerService {
	return &BarometerService{repo: repo, launcher: launcher, newPipeline: newPipeline}
}

func (s *BarometerService) StartRefresh(ctx context.Context, force bool) (*store.Run, error) {
	return s.launcher.Start(ctx, s.newPipeline(force))
}

func (s *BarometerService) SeriesNames(ctx context.Context) ([]string, error) {
	return s.repo.SeriesNames(ctx)
}

func (s *BarometerService) Observations(ctx context.Context, names ...string) ([]series.Observation, error) {
	return s.repo.Observations(ctx, names...)
}

// Forecast returns the points of one series, or every series when name is empty.
func (s *BarometerService) Forecast(ctx context.Context, name string) ([]forecast.Point, error) {
	return s.repo.Forecasts(ctx, name)
}

// ForecastVersion is the history hash the stored forecast was built from.
func (s *BarometerService) ForecastVersion(ctx context.Context) (string, error) {
	return s.repo.ForecastHash(ctx)
}
