package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/cache"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
)

const KindBarometer = "barometer"

// SeriesFetcher downloads a catalog.
type SeriesFetcher interface {
	Fetch(ctx context.Context, specs []series.Spec) (*series.FetchResult, error)
}

// BarometerStore receives the observation and forecast snapshots.
type BarometerStore interface {
	ReplaceObservations(ctx context.Context, obs []series.Observation) error
	ReplaceForecasts(ctx context.Context, points []forecast.Point, historyHash string) error
}

// BarometerPipeline refreshes the indicator history when it is stale and
// regenerates the forecast when the history is newer than it.
type BarometerPipeline struct {
	Config  config.BarometerConfig
	Fetcher SeriesFetcher
	Catalog []series.Spec
	Store   BarometerStore      // optional
	Cache   cache.ForecastCache // optional
	Metrics *metrics.Metrics    // optional
	Force   bool                // refetch and refit regardless of file ages
	Now     func() time.Time

	// SkipFetch only forecasts from the existing history file.
	SkipFetch bool
	// SkipForecast stops after the history refresh.
	SkipForecast bool
	// Setup is a fetch construction failure, such as missing API keys,
	// reported by Validate.
	Setup error
}

func (p *BarometerPipeline) Name() string { return KindBarometer }

func (p *BarometerPipeline) Validate(context.Context) error {
	if !p.SkipFetch {
		if p.Setup != nil {
			return p.Setup
		}
		if p.Fetcher == nil {
			return fmt.Errorf("barometer fetch needs a series fetcher")
		}
		return series.ValidateCatalog(p.catalog())
	}
	if _, err := os.Stat(p.Config.ObservationsPath()); err != nil {
		return fmt.Errorf("%w: %s", series.ErrNoData, filepath.Base(p.Config.ObservationsPath()))
	}
	return nil
}

func (p *BarometerPipeline) catalog() []series.Spec {
	if len(p.Catalog) == 0 {
		return series.DefaultCatalog()
	}
	return p.Catalog
}

func (p *BarometerPipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *BarometerPipeline) Execute(ctx context.Context) (*Output, error) {
	out := &Output{}
	obsPath := p.Config.ObservationsPath()

	if !p.SkipFetch {
		stale, err := series.NeedsRefresh(obsPath, p.Config.RefreshAge(), p.now())
		if err != nil {
			return nil, fmt.Errorf("failed to check history age: %w", err)
		}
		if stale || p.Force {
			if err := p.fetch(ctx, out); err != nil {
				return nil, err
			}
		} else {
			log.Info().Str("path", obsPath).Int("refresh_days", p.Config.RefreshDays).Msg("history is fresh, fetch skipped")
		}
	}

	if p.SkipForecast {
		return out, nil
	}

	regen, err := forecast.NeedsRegeneration(obsPath, p.Config.ForecastPath())
	if err != nil {
		return nil, err
	}
	if !regen && !p.Force {
		log.Info().Str("path", p.Config.ForecastPath()).Msg("forecast is current, regeneration skipped")
		return out, nil
	}
	if err := p.forecast(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *BarometerPipeline) fetch(ctx context.Context, out *Output) error {
	specs := p.catalog()
	res, err := p.Fetcher.Fetch(ctx, specs)
	if err != nil {
		return err
	}
	obs := series.Normalize(res.Observations)
	if len(obs) == 0 {
		return fmt.Errorf("%w: every series failed", series.ErrNoData)
	}

	if err := series.WriteFile(p.Config.ObservationsPath(), obs); err != nil {
		return err
	}
	if p.Store != nil {
		if err := p.Store.ReplaceObservations(ctx, obs); err != nil {
			return fmt.Errorf("failed to persist observations: %w", err)
		}
	}

	p.observeFetch(specs, res)
	for _, name := range res.Failed {
		out.Warnings = append(out.Warnings, fmt.Sprintf("series fetch failed: %s", name))
	}
	out.Files = append(out.Files, p.Config.ObservationsPath())
	out.Rows += len(obs)
	return nil
}

func (p *BarometerPipeline) observeFetch(specs []series.Spec, res *series.FetchResult) {
	if p.Metrics == nil {
		return
	}
	bySource := make(map[string]series.Source, 2*len(specs))
	for _, s := range specs {
		bySource[s.Name] = s.Source
		bySource[s.Label()] = s.Source
	}
	fetched := make(map[series.Source]int)
	failed := make(map[series.Source]int)
	for _, name := range res.Fetched {
		fetched[bySource[name]]++
	}
	for _, label := range res.Failed {
		failed[bySource[label]]++
	}
	for _, src := range []series.Source{series.SourceFRED, series.SourceEIA} {
		p.Metrics.ObserveFetch(string(src), fetched[src], failed[src])
	}
}

func (p *BarometerPipeline) forecast(ctx context.Context, out *Output) error {
	history, err := series.ReadFile(p.Config.ObservationsPath())
	if err != nil {
		return err
	}

	c := p.Cache
	if c == nil {
		c = cache.NewNoopForecastCache()
	}
	if p.Force {
		if err := c.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to clear forecast cache")
		}
	}
	opts := forecast.Options{ClampBounds: p.Config.ClampBounds, Workers: p.Config.Workers}
	res, cached, err := cache.CachedForecast(ctx, c, history, p.Config.Horizon, opts)
	if err != nil {
		return err
	}

	if err := forecast.WriteFile(p.Config.ForecastPath(), res.Points); err != nil {
		return err
	}
	if p.Store != nil {
		hash, err := cache.HistoryHash(history)
		if err != nil {
			return err
		}
		if err := p.Store.ReplaceForecasts(ctx, res.Points, hash); err != nil {
			return fmt.Errorf("failed to persist forecasts: %w", err)
		}
	}
	p.Metrics.ObserveForecast(len(res.Points), len(res.Skipped), len(res.Failed), cached)

	for _, name := range res.Skipped {
		out.Warnings = append(out.Warnings, fmt.Sprintf("series skipped, insufficient history: %s", name))
	}
	for _, name := range res.Failed {
		out.Warnings = append(out.Warnings, fmt.Sprintf("model fallback: %s", name))
	}
	out.Files = append(out.Files, p.Config.ForecastPath())
	out.Rows += len(res.Points)
	return nil
}
