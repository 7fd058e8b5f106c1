package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/config"
	"github.com/gnadela/immoeliza-analysis/internal/api"
	"github.com/gnadela/immoeliza-analysis/internal/database"
	"github.com/gnadela/immoeliza-analysis/internal/processor"
	"github.com/gnadela/immoeliza-analysis/internal/queue"
	"github.com/gnadela/immoeliza-analysis/internal/scheduler"
	"github.com/gnadela/immoeliza-analysis/internal/source"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure logger")
	}

	logger.Infof("Using %s database at: %s", cfg.Database.Driver, cfg.Database.DSN)
	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	fetcher := source.NewFetcher(source.Options{
		Timeout:    cfg.Inputs.Timeout,
		RetryCount: cfg.Inputs.Retries,
		RetryWait:  source.DefaultOptions.RetryWait,
	}, logger)

	pipeline, err := processor.NewPipeline(cfg, fetcher, db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure pipeline")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := queue.NewRunQueue(cfg.Pipeline.QueueSize, logger)
	runs.Subscribe(pipeline.Handler(ctx))
	runs.Start()

	sched := scheduler.NewScheduler(runs, cfg.ScheduleInterval, cfg.RunOnStartup, logger)
	sched.Start()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(db, runs, logger), cfg.HTTP.AllowedOrigins)
	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: router,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("Shutting down...")
		sched.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Infof("Starting server on port %s", cfg.HTTP.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server failed to start")
	}

	// a run in progress stops at its next cancellation point
	cancel()
	if err := runs.Close(); err != nil {
		logger.WithError(err).Error("Failed to close run queue")
	}
	logger.Info("Server stopped")
}
