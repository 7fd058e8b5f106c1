package database

import (
	"fmt"

	"github.com/gnadela/immoeliza-analysis/internal/models"
)

// RunMigrations creates or updates the runs and model_listings tables.
func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Run{}, &listingRecord{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	// Area queries filter on postal code and sort by price
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_model_listings_postal_price
		ON model_listings(postal_code, price)
	`).Error; err != nil {
		return fmt.Errorf("failed to create postal code index: %w", err)
	}

	return nil
}
