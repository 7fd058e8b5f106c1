package enrich

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadela/immoeliza-analysis/internal/geodensity"
	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

func TestEnrich_ResolvedBrusselsDensity(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	postal := table.New(geodensity.PostalRefTable,
		[]string{geodensity.ColPostalCode, geodensity.ColRefnisCode},
		[][]string{{"1000", "21004"}})
	sectors := table.New(geodensity.SectorStatsTable,
		[]string{geodensity.ColSectorRefnis, geodensity.ColSectorPopulation, geodensity.ColSectorArea},
		[][]string{{"21004", "50000", "3300"}})

	res, err := geodensity.NewResolver(logger).Resolve(postal, sectors)
	require.NoError(t, err)

	enriched := Enrich([]models.Listing{{ID: 7, PostalCode: 1000}}, res.Lookup)
	require.NotNil(t, enriched[0].PopulationDensity)
	assert.Equal(t, 1515.0, *enriched[0].PopulationDensity)
}

func TestEnrich_AttachesDensity(t *testing.T) {
	listings := []models.Listing{
		{ID: 1, PostalCode: 1000, Price: 250000},
		{ID: 2, PostalCode: 9999, Price: 180000},
		{ID: 3, PostalCode: 1000, Price: 320000},
	}
	lookup := geodensity.Lookup{1000: 1515}

	enriched := Enrich(listings, lookup)

	require.Len(t, enriched, 3)
	require.NotNil(t, enriched[0].PopulationDensity)
	assert.Equal(t, 1515.0, *enriched[0].PopulationDensity)
	assert.Nil(t, enriched[1].PopulationDensity)
	require.NotNil(t, enriched[2].PopulationDensity)
	assert.Equal(t, int64(3), enriched[2].ID)
}

func TestEnrich_NeverDropsRows(t *testing.T) {
	listings := []models.Listing{{ID: 1, PostalCode: 1}, {ID: 2, PostalCode: 2}}

	enriched, summary := EnrichWithSummary(listings, nil)

	assert.Len(t, enriched, 2)
	assert.Equal(t, 0, summary.Matched)
	assert.Equal(t, 2, summary.Unmatched)
	assert.Equal(t, []int64{1, 2}, summary.UnmatchedPostalCodes)
}

func TestEnrich_DoesNotShareDensityPointers(t *testing.T) {
	listings := []models.Listing{{ID: 1, PostalCode: 1000}, {ID: 2, PostalCode: 1000}}

	enriched := Enrich(listings, geodensity.Lookup{1000: 1515})
	*enriched[0].PopulationDensity = 0

	assert.Equal(t, 1515.0, *enriched[1].PopulationDensity)
}

func TestEnrich_SummaryCountsUnmatchedOnce(t *testing.T) {
	listings := []models.Listing{
		{ID: 1, PostalCode: 1000},
		{ID: 2, PostalCode: 4000},
		{ID: 3, PostalCode: 4000},
	}

	_, summary := EnrichWithSummary(listings, geodensity.Lookup{1000: 1515})

	assert.Equal(t, Summary{Matched: 1, Unmatched: 2, UnmatchedPostalCodes: []int64{4000}}, summary)
}
