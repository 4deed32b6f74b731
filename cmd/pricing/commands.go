package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/app"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/pipeline"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/quote"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/storage"
	"github.com/andresuchdata/pricing-automation/backend-go/pkg/logger"
)

func setup(c *cli.Context) error {
	logger.Configure(os.Stderr, c.Bool("json-logs"))
	logger.SetLevel(c.String("log-level"))

	cfg := config.Load()
	if dir := c.String("input-dir"); dir != "" {
		cfg.App.InputDir = dir
	}
	if dir := c.String("output-dir"); dir != "" {
		cfg.App.OutputDir = dir
	}

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.App.Metadata = map[string]interface{}{"app": a}
	return nil
}

func teardown(c *cli.Context) error {
	if a := appFrom(c); a != nil {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	a, _ := c.App.Metadata["app"].(*app.App)
	return a
}

// execute runs p to completion and prints the run summary.
func execute(c *cli.Context, p pipeline.Pipeline) error {
	run, err := appFrom(c).Orchestrator.Run(c.Context, p)
	if run != nil {
		fmt.Fprintf(c.App.Writer, "run %s %s: %d rows, %d warnings\n", run.ID, run.Status, run.TotalRows, run.Warnings)
		for _, out := range run.Outputs {
			fmt.Fprintf(c.App.Writer, "  %s\n", out)
		}
	}
	return err
}

func runDerive(c *cli.Context) error {
	a := appFrom(c)
	return execute(c, &pipeline.PricingPipeline{
		InputDir:  a.Config.App.InputDir,
		OutputDir: a.Config.App.OutputDir,
		Store:     a.Store,
	})
}

func vbcsCommand(step, usage string) *cli.Command {
	return &cli.Command{
		Name:  step,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return runSteps(c, []string{step})
		},
	}
}

func runVBCS(c *cli.Context) error {
	return runSteps(c, c.StringSlice("step"))
}

func runSteps(c *cli.Context, steps []string) error {
	a := appFrom(c)
	return execute(c, &pipeline.VBCSPipeline{
		InputDir:  a.Config.App.InputDir,
		OutputDir: a.Config.App.OutputDir,
		Steps:     steps,
	})
}

func barometerCommand(name, usage string, fetch, forecast bool) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Ignore file ages"},
		},
		Action: func(c *cli.Context) error {
			p := appFrom(c).BarometerPipeline(c.Bool("force"))
			p.SkipFetch = !fetch
			p.SkipForecast = !forecast
			return execute(c, p)
		},
	}
}

func runDrivePull(c *cli.Context) error {
	res, err := appFrom(c).PricingService().PullInputs(c.Context)
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		fmt.Fprintf(c.App.Writer, "pulled %s\n", f)
	}
	for _, m := range res.Missing {
		fmt.Fprintf(c.App.Writer, "missing %s\n", m)
	}
	return nil
}

func runPublish(c *cli.Context) error {
	a := appFrom(c)

	files := c.Args().Slice()
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(a.Config.App.OutputDir, "*.csv"))
		if err != nil {
			return err
		}
		files = matches
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to publish in %s", a.Config.App.OutputDir)
	}

	pub := a.Publisher
	if dir := c.String("to-dir"); dir != "" {
		pub = storage.NewPublisher(storage.NewLocalStorage(dir), a.Config.Storage.Prefix)
	}
	if pub == nil {
		return fmt.Errorf("storage is disabled; set STORAGE_ENABLED or pass --to-dir")
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}
	keys, err := pub.Publish(c.Context, runID, files)
	for _, k := range keys {
		fmt.Fprintf(c.App.Writer, "published %s\n", k)
	}
	return err
}

func runQuote(c *cli.Context) error {
	filter := quote.Filter{
		Items:        c.String("items"),
		Descriptions: c.String("descriptions"),
		Plants:       c.StringSlice("plant"),
		SellTo:       c.StringSlice("sell-to"),
		CustomLabel:  c.StringSlice("custom-label"),
		Pallets:      c.StringSlice("pallet"),
		Mileages:     c.StringSlice("mileage"),
		Drops:        c.StringSlice("drop"),
	}
	return appFrom(c).PricingService().Export(c.Context, c.App.Writer, filter)
}

func runList(c *cli.Context) error {
	runs, err := appFrom(c).RunService().List(c.Context, c.String("kind"), c.Int("limit"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tSTARTED\tROWS\tWARNINGS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", r.ID, r.Kind, r.Status, r.StartedAt.Local().Format(time.DateTime), r.TotalRows, r.Warnings)
	}
	return w.Flush()
}
