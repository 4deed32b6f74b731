package service

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/drive"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pipeline"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/quote"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/vbcs"
)

// ErrDriveDisabled is returned by PullInputs when no Drive folder is configured.
var ErrDriveDisabled = errors.New("drive is not configured")

// ComponentRepository is the price database.
type ComponentRepository interface {
	ReplaceComponents(ctx context.Context, rows []pricing.PriceComponentRow) error
	Components(ctx context.Context) ([]pricing.PriceComponentRow, error)
}

// RunLauncher starts tracked runs.
type RunLauncher interface {
	Start(ctx context.Context, p pipeline.Pipeline) (*store.Run, error)
}

// Puller fetches input files from a remote folder.
type Puller interface {
	Pull(ctx context.Context, opts drive.PullOptions) (*drive.PullResult, error)
}

type PricingService struct {
	repo     ComponentRepository
	launcher RunLauncher
	app      config.AppConfig
	puller   Puller
	folderID string
}

func NewPricingService(repo ComponentRepository, launcher RunLauncher, app config.AppConfig) *PricingService {
	return &PricingService{repo: repo, launcher: launcher, app: app}
}

// WithDrive enables PullInputs from folderID.
func (s *PricingService) WithDrive(p Puller, folderID string) *PricingService {
	s.puller = p
	s.folderID = folderID
	return s
}

// InputFiles lists every reference file a full pricing cycle reads.
func InputFiles() []string {
	files := append([]string{}, pricing.RequiredFiles...)
	return append(files,
		vbcs.FileExecution,
		vbcs.FileVariableUOM,
		vbcs.FileDates,
		vbcs.FileMarketIndex,
		vbcs.FileCustomers,
		vbcs.FilePriceBuild,
		vbcs.FileCostcoPricing,
		vbcs.FileRegionLookup,
	)
}

// StartDerive launches a derivation run.
func (s *PricingService) StartDerive(ctx context.Context) (*store.Run, error) {
	return s.launcher.Start(ctx, &pipeline.PricingPipeline{
		InputDir:  s.app.InputDir,
		OutputDir: s.app.OutputDir,
		Store:     s.repo,
	})
}

// StartVBCS launches a VBCS run for steps, or every step when empty.
func (s *PricingService) StartVBCS(ctx context.Context, steps []string) (*store.Run, error) {
	return s.launcher.Start(ctx, &pipeline.VBCSPipeline{
		InputDir:  s.app.InputDir,
		OutputDir: s.app.OutputDir,
		Steps:     steps,
	})
}

// Search filters the price database.
func (s *PricingService) Search(ctx context.Context, filter quote.Filter) ([]pricing.PriceComponentRow, error) {
	rows, err := s.repo.Components(ctx)
	if err != nil {
		return nil, err
	}
	return quote.Search(rows, filter), nil
}

// Export writes the filtered rows as a display CSV.
func (s *PricingService) Export(ctx context.Context, w io.Writer, filter quote.Filter) error {
	rows, err := s.Search(ctx, filter)
	if err != nil {
		return err
	}
	return pricing.WriteDisplayCSV(w, rows, quote.DisplayDecimals)
}

func (s *PricingService) Options(ctx context.Context) (quote.Options, error) {
	rows, err := s.repo.Components(ctx)
	if err != nil {
		return quote.Options{}, err
	}
	return quote.AvailableOptions(rows), nil
}

// PullInputs downloads the reference files into the input directory.
func (s *PricingService) PullInputs(ctx context.Context) (*drive.PullResult, error) {
	if s.puller == nil {
		return nil, ErrDriveDisabled
	}
	res, err := s.puller.Pull(ctx, drive.PullOptions{
		FolderID:    s.folderID,
		DownloadDir: s.app.InputDir,
		Wanted:      InputFiles(),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Missing) > 0 {
		log.Warn().Strs("missing", res.Missing).Msg("drive folder lacks input files")
	}
	return res, nil
}
