package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/effective"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/vbcs"
)

const KindVBCS = "vbcs"

// VBCS build steps, in the order they run.
const (
	StepVariable = "variable"
	StepFixed    = "fixed"
	StepKS       = "ks"
	StepCombine  = "combine"
)

var AllSteps = []string{StepVariable, StepFixed, StepKS, StepCombine}

// stepInputs are the files each step reads from the input directory.
var stepInputs = map[string][]string{
	StepVariable: {vbcs.FileExecution, vbcs.FileVariableUOM, vbcs.FileDates, vbcs.FileMarketIndex, vbcs.FileCustomers},
	StepFixed:    {vbcs.FilePriceBuild, vbcs.FileDates},
	StepKS:       {vbcs.FilePriceBuild, vbcs.FileCostcoPricing, vbcs.FileRegionLookup, vbcs.FileDates},
}

// VBCSPipeline builds the upload files for the selected steps. Combine reads
// whatever upload files are already in OutputDir.
type VBCSPipeline struct {
	InputDir  string
	OutputDir string
	Steps     []string
}

func (p *VBCSPipeline) Name() string { return KindVBCS }

func (p *VBCSPipeline) steps() []string {
	if len(p.Steps) == 0 {
		return AllSteps
	}
	return p.Steps
}

func (p *VBCSPipeline) Validate(context.Context) error {
	seen := make(map[string]bool)
	var files []string
	for _, step := range p.steps() {
		if step != StepCombine {
			if _, ok := stepInputs[step]; !ok {
				return fmt.Errorf("unknown VBCS step %q", step)
			}
		}
		for _, f := range stepInputs[step] {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	_, err := refdata.RequireFiles(p.InputDir, files...)
	return err
}

func (p *VBCSPipeline) Execute(ctx context.Context) (*Output, error) {
	out := &Output{}
	for _, step := range p.steps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		switch step {
		case StepVariable:
			err = p.variable(out)
		case StepFixed:
			err = p.fixed(out)
		case StepKS:
			err = p.ks(out)
		case StepCombine:
			err = p.combine(out)
		default:
			err = fmt.Errorf("unknown VBCS step %q", step)
		}
		if err != nil {
			return nil, fmt.Errorf("%s step: %w", step, err)
		}
	}
	return out, nil
}

func (p *VBCSPipeline) write(out *Output, name string, records []vbcs.Record) error {
	path := filepath.Join(p.OutputDir, name)
	if err := vbcs.WriteFile(path, records); err != nil {
		return err
	}
	out.Files = append(out.Files, path)
	out.Rows += len(records)
	return nil
}

func (p *VBCSPipeline) variable(out *Output) error {
	in, err := vbcs.LoadVariableInputs(p.InputDir)
	if err != nil {
		return err
	}
	res, err := vbcs.BuildVariable(in)
	if err != nil {
		return err
	}

	files := res.Groups.Files()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.write(out, name, files[name]); err != nil {
			return err
		}
	}
	for _, g := range res.Expansion {
		log.Info().
			Str("group", g.Name).
			Int("destinations", g.Destinations).
			Int("added", g.Added).
			Msg("cross-dock expansion")
	}
	out.Warnings = append(out.Warnings, res.Warnings...)
	return nil
}

func (p *VBCSPipeline) priceBuildAndDates() (*refdata.Table, *effective.Rules, error) {
	build, err := vbcs.LoadPriceBuild(filepath.Join(p.InputDir, vbcs.FilePriceBuild))
	if err != nil {
		return nil, nil, err
	}
	dates, err := effective.Load(filepath.Join(p.InputDir, vbcs.FileDates))
	if err != nil {
		return nil, nil, err
	}
	return build, dates, nil
}

func (p *VBCSPipeline) fixed(out *Output) error {
	build, dates, err := p.priceBuildAndDates()
	if err != nil {
		return err
	}
	res, err := vbcs.BuildFixed(&vbcs.FixedInputs{PriceBuild: build, Dates: dates})
	if err != nil {
		return err
	}
	out.Warnings = append(out.Warnings, res.Warnings...)
	return p.write(out, vbcs.FileFixed, res.Records)
}

func (p *VBCSPipeline) ks(out *Output) error {
	build, dates, err := p.priceBuildAndDates()
	if err != nil {
		return err
	}
	pricingTable, err := refdata.Load(filepath.Join(p.InputDir, vbcs.FileCostcoPricing))
	if err != nil {
		return err
	}
	lookup, err := refdata.Load(filepath.Join(p.InputDir, vbcs.FileRegionLookup))
	if err != nil {
		return err
	}
	res, err := vbcs.BuildKS(&vbcs.KSInputs{
		PriceBuild:    build,
		CostcoPricing: pricingTable,
		RegionLookup:  lookup,
		Dates:         dates,
	})
	if err != nil {
		return err
	}
	out.Warnings = append(out.Warnings, res.Warnings...)
	return p.write(out, vbcs.FileKS, res.Records)
}

func (p *VBCSPipeline) combine(out *Output) error {
	res, err := vbcs.CombineDir(p.OutputDir)
	if err != nil {
		return err
	}
	path := filepath.Join(p.OutputDir, vbcs.FileCombined)
	if err := refdata.WriteCSVFile(path, res.Table); err != nil {
		return err
	}
	log.Debug().Strs("missing", res.Missing).Msg("upload files not present for combine")
	out.Files = append(out.Files, path)
	out.Rows += len(res.Table.Rows)
	return nil
}
