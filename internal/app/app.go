// Package app wires configuration into the shared runtime used by the server
// and the CLI.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/cache"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/drive"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pipeline"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/service"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/storage"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

type App struct {
	Config       *config.Config
	Store        *store.Store
	Cache        cache.ForecastCache
	Metrics      *metrics.Metrics
	Orchestrator *pipeline.Orchestrator
	Publisher    *storage.Publisher // nil when storage is disabled
	Drive        *drive.Downloader  // nil when Drive is not configured

	driveFolder string
}

// New opens the store and builds every optional integration the config enables.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Store: st, Metrics: metrics.New()}

	a.Cache, err = cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache unavailable, continuing without it")
		a.Cache = cache.NewNoopForecastCache()
	}

	opts := []pipeline.Option{pipeline.WithMetrics(a.Metrics)}
	if cfg.Storage.Enabled {
		client, err := storage.NewS3Client(ctx, cfg.Storage)
		if err != nil {
			st.Close()
			return nil, err
		}
		a.Publisher = storage.NewPublisher(client, cfg.Storage.Prefix)
		opts = append(opts, pipeline.WithPublisher(a.Publisher))
	}

	if cfg.Drive.CredentialsFile != "" && (cfg.Drive.FolderID != "" || cfg.Drive.FolderPath != "") {
		creds, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to read drive credentials: %w", err)
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			st.Close()
			return nil, err
		}
		a.driveFolder = cfg.Drive.FolderID
		if a.driveFolder == "" {
			if a.driveFolder, err = svc.FindFolderByPath(ctx, cfg.Drive.FolderPath); err != nil {
				st.Close()
				return nil, err
			}
		}
		a.Drive = drive.NewDownloader(svc)
	}

	pcfg := pipeline.DefaultPipelineConfig()
	if cfg.App.RunTimeout > 0 {
		pcfg.RunTimeout = cfg.App.RunTimeout
	}
	a.Orchestrator = pipeline.NewOrchestrator(st, pcfg, opts...)

	return a, nil
}

// Close waits for background runs and releases the store.
func (a *App) Close() error {
	a.Orchestrator.Wait()
	return a.Store.Close()
}

// BarometerPipeline builds a barometer run with live FRED and EIA providers.
func (a *App) BarometerPipeline(force bool) *pipeline.BarometerPipeline {
	cfg := a.Config.Barometer
	p := &pipeline.BarometerPipeline{
		Config:  cfg,
		Catalog: series.DefaultCatalog(),
		Store:   a.Store,
		Cache:   a.Cache,
		Metrics: a.Metrics,
		Force:   force,
	}

	keys, err := series.LoadAPIKeys(cfg.APIKeysFile)
	if err == nil {
		err = keys.Require()
	}
	if err != nil {
		p.Setup = err
		return p
	}

	client := series.NewHTTPClient(cfg.RequestTimeout)
	p.Fetcher = series.NewFetcher(cfg.Workers,
		series.NewFREDProvider(client, cfg.FREDBaseURL, keys.FRED, cfg.RatePerSecond),
		series.NewEIAProvider(client, cfg.EIABaseURL, keys.EIA, cfg.RatePerSecond),
	)
	return p
}

// PricingService builds the pricing service over the app's store and runs.
func (a *App) PricingService() *service.PricingService {
	svc := service.NewPricingService(a.Store, a.Orchestrator, a.Config.App)
	if a.Drive != nil {
		svc.WithDrive(a.Drive, a.driveFolder)
	}
	return svc
}

func (a *App) BarometerService() *service.BarometerService {
	return service.NewBarometerService(a.Store, a.Orchestrator, a.BarometerPipeline)
}

func (a *App) RunService() *service.RunService {
	return service.NewRunService(a.Store)
}
