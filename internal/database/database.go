package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/outlier"
)

// ErrNotFound is returned when a run or postal code has no rows.
var ErrNotFound = errors.New("not found")

const insertBatchSize = 500

// listingRecord is a model-ready listing as stored in the model_listings table.
type listingRecord struct {
	models.Listing
	PopulationDensity *float64 `gorm:"index"`
	RunID             string   `gorm:"index;size:36"`
}

func (listingRecord) TableName() string {
	return "model_listings"
}

type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDatabase opens the store. driver is "sqlite" (dsn is a file path, or ":memory:")
// or "postgres" (dsn is a connection string).
func NewDatabase(driver, dsn string, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		// a single connection keeps ":memory:" databases alive and serializes writers
		sqlDB.SetMaxOpenConns(1)
	}

	logger.WithField("driver", driver).Info("Connected to database")
	return &Database{db: db, logger: logger}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateRun inserts a new run record.
func (d *Database) CreateRun(run *models.Run) error {
	if err := d.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRun overwrites every field of an existing run.
func (d *Database) UpdateRun(run *models.Run) error {
	if err := d.db.Save(run).Error; err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id or ErrNotFound.
func (d *Database) GetRun(id string) (*models.Run, error) {
	var run models.Run
	err := d.db.Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (d *Database) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []models.Run
	if err := d.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// ReplaceModelListings swaps the model table for the rows of a run in one transaction.
func (d *Database) ReplaceModelListings(runID string, rows []models.EnrichedListing) error {
	records := make([]listingRecord, len(rows))
	for i, r := range rows {
		records[i] = listingRecord{Listing: r.Listing, PopulationDensity: r.PopulationDensity, RunID: runID}
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&listingRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear model listings: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert model listings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"rows":   len(records),
	}).Info("Stored model listings")
	return nil
}

// GetListings returns model listings matching the filter, ordered by id.
func (d *Database) GetListings(filter models.ListingFilter) ([]models.EnrichedListing, error) {
	query := d.applyFilter(d.db.Model(&listingRecord{}), filter).Order("id")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []listingRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}

	listings := make([]models.EnrichedListing, len(records))
	for i, r := range records {
		listings[i] = models.EnrichedListing{Listing: r.Listing, PopulationDensity: r.PopulationDensity}
	}
	return listings, nil
}

func (d *Database) applyFilter(query *gorm.DB, filter models.ListingFilter) *gorm.DB {
	if filter.PostalCode != 0 {
		query = query.Where("postal_code = ?", filter.PostalCode)
	}
	if filter.PropertyType != "" {
		query = query.Where("LOWER(property_type) = LOWER(?)", filter.PropertyType)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	return query
}

type statsRow struct {
	TotalListings     int
	AveragePrice      float64
	PricePerSqm       float64
	AverageDensity    float64
	TotalHouses       int
	TotalApartments   int
	AverageLivingArea float64
}

// GetListingStats summarizes the model table.
func (d *Database) GetListingStats() (models.ListingStats, error) {
	var row statsRow
	err := d.db.Model(&listingRecord{}).Select(`
		COUNT(*) AS total_listings,
		COALESCE(AVG(price), 0) AS average_price,
		COALESCE(AVG(price_per_living_area), 0) AS price_per_sqm,
		COALESCE(AVG(population_density), 0) AS average_density,
		COALESCE(SUM(CASE WHEN LOWER(property_type) = 'house' THEN 1 ELSE 0 END), 0) AS total_houses,
		COALESCE(SUM(CASE WHEN LOWER(property_type) = 'apartment' THEN 1 ELSE 0 END), 0) AS total_apartments,
		COALESCE(AVG(living_area), 0) AS average_living_area
	`).Scan(&row).Error
	if err != nil {
		return models.ListingStats{}, fmt.Errorf("failed to get listing stats: %w", err)
	}

	var prices []float64
	if err := d.db.Model(&listingRecord{}).Pluck("price", &prices).Error; err != nil {
		return models.ListingStats{}, fmt.Errorf("failed to get prices: %w", err)
	}

	stats := models.ListingStats{
		TotalListings:     row.TotalListings,
		AveragePrice:      row.AveragePrice,
		PricePerSqm:       row.PricePerSqm,
		AverageDensity:    row.AverageDensity,
		TotalHouses:       row.TotalHouses,
		TotalApartments:   row.TotalApartments,
		AverageLivingArea: row.AverageLivingArea,
	}
	if len(prices) > 0 {
		stats.MedianPrice = outlier.Quantile(prices, 0.5)
	}
	return stats, nil
}

// GetAreaStats summarizes the listings of one postal code.
func (d *Database) GetAreaStats(postalCode int64) (models.AreaStats, error) {
	var records []listingRecord
	err := d.db.Where("postal_code = ?", postalCode).Order("id").Find(&records).Error
	if err != nil {
		return models.AreaStats{}, fmt.Errorf("failed to get area listings: %w", err)
	}
	if len(records) == 0 {
		return models.AreaStats{}, ErrNotFound
	}

	stats := models.AreaStats{
		PostalCode:    postalCode,
		City:          records[0].City,
		PropertyCount: len(records),
	}
	prices := make([]float64, len(records))
	var priceSum, perSqmSum float64
	for i, r := range records {
		prices[i] = r.Price
		priceSum += r.Price
		perSqmSum += r.PricePerLivingArea
		if stats.PopulationDensity == nil && r.PopulationDensity != nil {
			density := *r.PopulationDensity
			stats.PopulationDensity = &density
		}
	}
	stats.AveragePrice = priceSum / float64(len(records))
	stats.AvgPricePerSqm = perSqmSum / float64(len(records))
	stats.MedianPrice = outlier.Quantile(prices, 0.5)
	return stats, nil
}
