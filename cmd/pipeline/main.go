package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/config"
	"github.com/gnadela/immoeliza-analysis/internal/database"
	"github.com/gnadela/immoeliza-analysis/internal/processor"
	"github.com/gnadela/immoeliza-analysis/internal/source"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		logrus.WithError(err).Error("Pipeline failed")
		os.Exit(1)
	}
}

// run executes one pipeline run. Deferred cleanup has finished by the time it returns.
func run(ctx context.Context, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	flags.StringVar(&cfg.Inputs.RawListings, "raw", cfg.Inputs.RawListings, "raw listings CSV or XLSX, path or URL")
	flags.StringVar(&cfg.Inputs.PostalRef, "postal", cfg.Inputs.PostalRef, "postal code to REFNIS reference table")
	flags.StringVar(&cfg.Inputs.SectorStats, "sectors", cfg.Inputs.SectorStats, "statistical sector population table")
	flags.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory receiving the stage tables")
	flags.BoolVar(&cfg.WriteWorkbook, "xlsx", cfg.WriteWorkbook, "also write the model table as a workbook")
	skipDB := flags.Bool("no-db", false, "do not record the run or store the model table")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	var store processor.Store
	if !*skipDB {
		db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return err
		}
		store = db
	}

	fetcher := source.NewFetcher(source.Options{
		Timeout:    cfg.Inputs.Timeout,
		RetryCount: cfg.Inputs.Retries,
		RetryWait:  source.DefaultOptions.RetryWait,
	}, logger)

	pipeline, err := processor.NewPipeline(cfg, fetcher, store, logger)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, "")
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"run_id":     result.Run.ID,
		"model_rows": result.Run.ModelRows,
		"output_dir": cfg.OutputDir,
	}).Info("Pipeline finished")
	return nil
}
