package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/vbcs"
)

const KindPricing = "pricing"

// ComponentStore receives the derived price table.
type ComponentStore interface {
	ReplaceComponents(ctx context.Context, rows []pricing.PriceComponentRow) error
}

// PricingPipeline derives the price-component table from the reference
// files in InputDir.
type PricingPipeline struct {
	InputDir  string
	OutputDir string
	Store     ComponentStore // optional
}

func (p *PricingPipeline) Name() string { return KindPricing }

func (p *PricingPipeline) Validate(context.Context) error {
	_, err := refdata.RequireFiles(p.InputDir, pricing.RequiredFiles...)
	return err
}

func (p *PricingPipeline) Execute(ctx context.Context) (*Output, error) {
	in, err := pricing.LoadInputs(p.InputDir)
	if err != nil {
		return nil, err
	}

	// the assumptions file is shared with the VBCS builders and optional here
	datesPath := filepath.Join(p.InputDir, vbcs.FileDates)
	if _, err := os.Stat(datesPath); err == nil {
		if in.Dates, err = effective.Load(datesPath); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", vbcs.FileDates, err)
	}

	res, err := pricing.Derive(ctx, in)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(p.OutputDir, pricing.ComponentsFile)
	if err := pricing.WriteComponentsFile(path, res.Rows); err != nil {
		return nil, err
	}
	if p.Store != nil {
		if err := p.Store.ReplaceComponents(ctx, res.Rows); err != nil {
			return nil, fmt.Errorf("failed to persist price components: %w", err)
		}
	}

	return &Output{Files: []string{path}, Rows: len(res.Rows), Warnings: res.Warnings}, nil
}
