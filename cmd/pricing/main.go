package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/pipeline"
	"github.com/andresuchdata/pricing-automation/backend-go/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "pricing",
		Usage: "Derive prices, build VBCS upload files and refresh the market barometer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input-dir",
				Usage:   "Directory holding the reference CSV files",
				EnvVars: []string{"APP_INPUT_DIR"},
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Usage:   "Directory receiving generated files",
				EnvVars: []string{"APP_OUTPUT_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "json-logs",
				Usage:   "Write logs as JSON",
				EnvVars: []string{"LOG_JSON"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{
				Name:   "derive",
				Usage:  "Derive the price-component table from the reference files",
				Action: runDerive,
			},
			vbcsCommand(pipeline.StepVariable, "Build the variable-pricing upload files"),
			vbcsCommand(pipeline.StepFixed, "Carry fixed and quarterly prices into the current month"),
			vbcsCommand(pipeline.StepKS, "Build the Kirkland Signature upload file"),
			vbcsCommand(pipeline.StepCombine, "Combine the upload files into one"),
			{
				Name:  "vbcs",
				Usage: "Run every VBCS step in order",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "step",
						Usage: "Step to run; repeat for several (default all)",
					},
				},
				Action: runVBCS,
			},
			{
				Name:  "barometer",
				Usage: "Market indicator history and forecast",
				Subcommands: []*cli.Command{
					barometerCommand("fetch", "Fetch the indicator history if stale", true, false),
					barometerCommand("forecast", "Regenerate the forecast if the history changed", false, true),
					barometerCommand("refresh", "Fetch then forecast", true, true),
				},
			},
			{
				Name:  "drive",
				Usage: "Google Drive inputs",
				Subcommands: []*cli.Command{
					{
						Name:   "pull",
						Usage:  "Download the reference files into the input directory",
						Action: runDrivePull,
					},
				},
			},
			{
				Name:      "publish",
				Usage:     "Upload output CSV files to object storage",
				ArgsUsage: "[file...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run-id",
						Usage: "Key prefix for the upload (default a new id)",
					},
					&cli.StringFlag{
						Name:  "to-dir",
						Usage: "Publish into a local directory instead of the bucket",
					},
				},
				Action: runPublish,
			},
			{
				Name:  "quote",
				Usage: "Search the price database and print matching rows as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "items", Usage: "';'-separated item number terms"},
					&cli.StringFlag{Name: "descriptions", Usage: "';'-separated description terms"},
					&cli.StringSliceFlag{Name: "plant"},
					&cli.StringSliceFlag{Name: "sell-to"},
					&cli.StringSliceFlag{Name: "custom-label"},
					&cli.StringSliceFlag{Name: "pallet"},
					&cli.StringSliceFlag{Name: "mileage"},
					&cli.StringSliceFlag{Name: "drop"},
				},
				Action: runQuote,
			},
			{
				Name:  "runs",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "pricing, vbcs or barometer"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: runList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}
