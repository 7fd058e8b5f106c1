package database

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadela/immoeliza-analysis/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := NewDatabase("sqlite", ":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func enriched(id, postal int64, propertyType string, price, living float64, density *float64) models.EnrichedListing {
	return models.EnrichedListing{
		Listing: models.Listing{
			ID:                 id,
			PostalCode:         postal,
			City:               "City" + string(rune('A'+postal%26)),
			PropertyType:       propertyType,
			Price:              price,
			LivingArea:         living,
			TotalArea:          living,
			PricePerLivingArea: price / living,
		},
		PopulationDensity: density,
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase("mysql", "whatever", nil)
	assert.Error(t, err)
}

func TestRuns(t *testing.T) {
	db := newTestDatabase(t)

	started := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	older := &models.Run{ID: "run-1", Status: models.RunStatusCompleted, StartedAt: started.Add(-time.Hour)}
	newer := &models.Run{ID: "run-2", Status: models.RunStatusRunning, StartedAt: started}
	require.NoError(t, db.CreateRun(older))
	require.NoError(t, db.CreateRun(newer))

	finished := started.Add(time.Minute)
	newer.Status = models.RunStatusCompleted
	newer.ModelRows = 42
	newer.FinishedAt = &finished
	require.NoError(t, db.UpdateRun(newer))

	got, err := db.GetRun("run-2")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 42, got.ModelRows)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)

	_, err = db.GetRun("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceModelListings(t *testing.T) {
	db := newTestDatabase(t)

	first := []models.EnrichedListing{
		enriched(1, 1000, "House", 300000, 100, ptr(1515)),
		enriched(2, 1000, "Apartment", 200000, 80, ptr(1515)),
	}
	require.NoError(t, db.ReplaceModelListings("run-1", first))

	second := []models.EnrichedListing{
		enriched(2, 1000, "Apartment", 210000, 80, ptr(1515)),
		enriched(3, 9000, "House", 400000, 160, nil),
	}
	require.NoError(t, db.ReplaceModelListings("run-2", second))

	listings, err := db.GetListings(models.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, int64(2), listings[0].ID)
	assert.Equal(t, 210000.0, listings[0].Price)
	assert.Nil(t, listings[1].PopulationDensity)
}

func TestGetListings_Filter(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.ReplaceModelListings("run-1", []models.EnrichedListing{
		enriched(1, 1000, "House", 300000, 100, nil),
		enriched(2, 1000, "Apartment", 200000, 80, nil),
		enriched(3, 9000, "House", 450000, 150, nil),
		enriched(4, 9000, "House", 150000, 90, nil),
	}))

	tests := []struct {
		name     string
		filter   models.ListingFilter
		expected []int64
	}{
		{name: "Postal code", filter: models.ListingFilter{PostalCode: 9000}, expected: []int64{3, 4}},
		{name: "Property type ignores case", filter: models.ListingFilter{PropertyType: "HOUSE"}, expected: []int64{1, 3, 4}},
		{name: "Price range", filter: models.ListingFilter{MinPrice: ptr(160000), MaxPrice: ptr(350000)}, expected: []int64{1, 2}},
		{name: "Limit", filter: models.ListingFilter{Limit: 1}, expected: []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings, err := db.GetListings(tt.filter)
			require.NoError(t, err)
			ids := make([]int64, len(listings))
			for i, l := range listings {
				ids[i] = l.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestGetListingStats(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.ReplaceModelListings("run-1", []models.EnrichedListing{
		enriched(1, 1000, "House", 300000, 100, ptr(1000)),
		enriched(2, 1000, "Apartment", 200000, 100, ptr(3000)),
		enriched(3, 9000, "House", 400000, 100, nil),
	}))

	stats, err := db.GetListingStats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalListings)
	assert.Equal(t, 300000.0, stats.AveragePrice)
	assert.Equal(t, 300000.0, stats.MedianPrice)
	assert.Equal(t, 3000.0, stats.PricePerSqm)
	assert.Equal(t, 2000.0, stats.AverageDensity)
	assert.Equal(t, 2, stats.TotalHouses)
	assert.Equal(t, 1, stats.TotalApartments)
	assert.Equal(t, 100.0, stats.AverageLivingArea)
}

func TestGetListingStats_Empty(t *testing.T) {
	db := newTestDatabase(t)

	stats, err := db.GetListingStats()
	require.NoError(t, err)
	assert.Equal(t, models.ListingStats{}, stats)
}

func TestGetAreaStats(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.ReplaceModelListings("run-1", []models.EnrichedListing{
		enriched(1, 1000, "House", 300000, 100, ptr(1515)),
		enriched(2, 1000, "Apartment", 200000, 100, ptr(1515)),
		enriched(3, 1000, "House", 250000, 100, ptr(1515)),
		enriched(4, 9000, "House", 400000, 100, nil),
	}))

	stats, err := db.GetAreaStats(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stats.PostalCode)
	assert.Equal(t, 3, stats.PropertyCount)
	assert.Equal(t, 250000.0, stats.AveragePrice)
	assert.Equal(t, 250000.0, stats.MedianPrice)
	assert.Equal(t, 2500.0, stats.AvgPricePerSqm)
	require.NotNil(t, stats.PopulationDensity)
	assert.Equal(t, 1515.0, *stats.PopulationDensity)

	_, err = db.GetAreaStats(4000)
	assert.ErrorIs(t, err, ErrNotFound)
}
