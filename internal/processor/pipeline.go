package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gnadela/immoeliza-analysis/config"
	"github.com/gnadela/immoeliza-analysis/internal/analysis"
	"github.com/gnadela/immoeliza-analysis/internal/enrich"
	"github.com/gnadela/immoeliza-analysis/internal/geodensity"
	"github.com/gnadela/immoeliza-analysis/internal/geometry"
	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/normalize"
	"github.com/gnadela/immoeliza-analysis/internal/outlier"
	"github.com/gnadela/immoeliza-analysis/internal/storage"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

// Input table names.
const (
	RawListingsTable = "raw_listings"
)

// Loader fetches an input table from a path or URL.
type Loader interface {
	Load(ctx context.Context, location, name string) (*table.Table, error)
}

// Store records runs and keeps the latest model table.
type Store interface {
	CreateRun(run *models.Run) error
	UpdateRun(run *models.Run) error
	ReplaceModelListings(runID string, rows []models.EnrichedListing) error
}

// Result carries everything a run produced.
type Result struct {
	Run        models.Run
	Report     *normalize.Report
	Resolution *geodensity.Resolution
	Enrichment enrich.Summary
	Steps      []outlier.Step
	Model      []models.EnrichedListing
}

// Pipeline runs normalize, resolve, enrich and filter over freshly loaded inputs.
type Pipeline struct {
	loader     Loader
	store      Store
	config     *config.Config
	logger     *logrus.Logger
	normalizer *normalize.Normalizer
	resolver   *geodensity.Resolver
	filter     *outlier.Filter
	maps       *geometry.Builder
	columns    []outlier.Column
	now        func() time.Time
}

// NewPipeline validates the outlier columns and wires the stages. store may be nil,
// in which case runs are neither recorded nor persisted.
func NewPipeline(cfg *config.Config, loader Loader, store Store, logger *logrus.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	columns := outlier.DefaultColumns
	if len(cfg.Pipeline.OutlierColumns) > 0 {
		parsed, err := outlier.ParseColumns(cfg.Pipeline.OutlierColumns)
		if err != nil {
			return nil, err
		}
		columns = parsed
	}

	return &Pipeline{
		loader: loader,
		store:  store,
		config: cfg,
		logger: logger,
		normalizer: normalize.NewNormalizer(normalize.Options{
			ConstructionYearTolerance: cfg.Pipeline.ConstructionYearTolerance,
		}, logger),
		resolver: geodensity.NewResolver(logger),
		filter:   outlier.NewFilter(logger),
		maps:     geometry.NewBuilder(logger),
		columns:  columns,
		now:      time.Now,
	}, nil
}

// Run executes the pipeline once. An empty runID gets a fresh UUID. A failure at any
// stage marks the run failed and returns the error; later stages write nothing.
func (p *Pipeline) Run(ctx context.Context, runID string) (*Result, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &Result{Run: models.Run{
		ID:        runID,
		Status:    models.RunStatusRunning,
		StartedAt: p.now().UTC(),
	}}
	log := p.logger.WithField("run_id", runID)

	if p.store != nil {
		if err := p.store.CreateRun(&result.Run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}
	log.Info("Starting pipeline run")

	if err := p.execute(ctx, result); err != nil {
		p.finish(result, err)
		log.WithError(err).Error("Pipeline run failed")
		return result, err
	}

	p.finish(result, nil)
	log.WithFields(logrus.Fields{
		"raw_rows":     result.Run.RawRows,
		"cleaned_rows": result.Run.CleanedRows,
		"model_rows":   result.Run.ModelRows,
	}).Info("Pipeline run completed")
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, result *Result) error {
	raw, postalRef, sectors, err := p.loadInputs(ctx)
	if err != nil {
		return err
	}
	result.Run.RawRows = raw.Len()

	listings, report, err := p.normalizer.Normalize(raw)
	if err != nil {
		return err
	}
	result.Report = report
	result.Run.CleanedRows = len(listings)

	resolution, err := p.resolver.Resolve(postalRef, sectors)
	if err != nil {
		return err
	}
	result.Resolution = resolution
	result.Run.DensityCollisions = len(resolution.Collisions)

	enriched, summary := enrich.EnrichWithSummary(listings, resolution.Lookup)
	result.Enrichment = summary
	result.Run.EnrichedMatched = summary.Matched
	result.Run.EnrichedUnmatched = summary.Unmatched

	model, steps := p.filter.Apply(enriched, p.columns)
	result.Model = model
	result.Steps = steps
	result.Run.ModelRows = len(model)

	staging, err := p.stageOutputs([]*table.Table{
		storage.ListingsToTable(listings),
		storage.UnitsToTable(resolution.Units),
		storage.EnrichedToTable(storage.EnrichedTable, enriched),
		storage.EnrichedToTable(storage.ModelTable, model),
	}, model)
	if staging != "" {
		defer os.RemoveAll(staging)
	}
	if err != nil {
		return err
	}

	if err := p.persist(ctx, result.Run.ID, model); err != nil {
		return err
	}
	return p.publish(staging)
}

// Handler adapts the pipeline to the run queue.
func (p *Pipeline) Handler(ctx context.Context) func(models.RunRequest) error {
	return func(req models.RunRequest) error {
		p.logger.WithFields(logrus.Fields{
			"run_id":  req.ID,
			"trigger": req.Trigger,
		}).Info("Picked up run request")
		_, err := p.Run(ctx, req.ID)
		return err
	}
}

// loadInputs fetches the three input tables concurrently.
func (p *Pipeline) loadInputs(ctx context.Context) (raw, postalRef, sectors *table.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)
	inputs := p.config.Inputs

	g.Go(func() error {
		t, err := p.loader.Load(gctx, inputs.RawListings, RawListingsTable)
		raw = t
		return err
	})
	g.Go(func() error {
		t, err := p.loader.Load(gctx, inputs.PostalRef, geodensity.PostalRefTable)
		postalRef = t
		return err
	})
	g.Go(func() error {
		t, err := p.loader.Load(gctx, inputs.SectorStats, geodensity.SectorStatsTable)
		sectors = t
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return raw, postalRef, sectors, nil
}

// stageOutputs writes the stage tables, the optional workbook and the maps into a
// fresh directory under the output directory. Nothing is written without one.
func (p *Pipeline) stageOutputs(tables []*table.Table, model []models.EnrichedListing) (string, error) {
	if p.config.OutputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(p.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	staging, err := os.MkdirTemp(p.config.OutputDir, ".staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	for _, t := range tables {
		if err := p.writeStage(staging, t); err != nil {
			return staging, err
		}
		if p.config.WriteWorkbook && t.Name == storage.ModelTable {
			if err := storage.WriteXLSX(filepath.Join(staging, t.Name+".xlsx"), "Model", t); err != nil {
				return staging, fmt.Errorf("failed to write model workbook: %w", err)
			}
		}
	}
	if err := p.writeMaps(staging, model); err != nil {
		return staging, err
	}
	return staging, nil
}

func (p *Pipeline) writeStage(dir string, t *table.Table) error {
	path := filepath.Join(dir, t.Name+".csv")
	if err := storage.WriteCSV(path, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.Name, err)
	}
	p.logger.WithFields(logrus.Fields{
		"table": t.Name,
		"rows":  t.Len(),
	}).Debug("Staged table")
	return nil
}

// writeMaps writes the postal code points and hulls of the model table.
func (p *Pipeline) writeMaps(dir string, model []models.EnrichedListing) error {
	summaries := analysis.PostalSummaries(model, "")
	low, high := analysis.PriceRange(summaries)
	if err := p.maps.Save(filepath.Join(dir, geometry.PostalPointsFile), p.maps.PostalPoints(summaries, low, high)); err != nil {
		return err
	}
	return p.maps.Save(filepath.Join(dir, geometry.PostalHullsFile), p.maps.PostalHulls(model))
}

// publish moves the staged files into the output directory.
func (p *Pipeline) publish(staging string) error {
	if staging == "" {
		return nil
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}
	for _, e := range entries {
		dst := filepath.Join(p.config.OutputDir, e.Name())
		if err := os.Rename(filepath.Join(staging, e.Name()), dst); err != nil {
			return fmt.Errorf("failed to publish %s: %w", e.Name(), err)
		}
		p.logger.WithField("path", dst).Debug("Published output")
	}
	return nil
}

// persist stores the model table, retrying on failure.
func (p *Pipeline) persist(ctx context.Context, runID string, model []models.EnrichedListing) error {
	if p.store == nil {
		return nil
	}

	maxRetries := p.config.Pipeline.MaxRetries
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying model persistence, attempt %d of %d", attempt, maxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.Pipeline.RetryDelay):
			}
		}

		err = p.store.ReplaceModelListings(runID, model)
		if err == nil {
			return nil
		}
		p.logger.WithError(err).Error("Model persistence failed")
	}

	return fmt.Errorf("failed to persist model table after %d attempts: %w", maxRetries+1, err)
}

func (p *Pipeline) finish(result *Result, runErr error) {
	finished := p.now().UTC()
	result.Run.FinishedAt = &finished
	result.Run.Status = models.RunStatusCompleted
	if runErr != nil {
		result.Run.Status = models.RunStatusFailed
		result.Run.Error = runErr.Error()
	}

	if p.store == nil {
		return
	}
	if err := p.store.UpdateRun(&result.Run); err != nil {
		p.logger.WithError(err).WithField("run_id", result.Run.ID).Error("Failed to update run record")
	}
}
