package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/normalize"
)

const rawListings = `ID,Url,Street,City,PostalCode,Region,District,Province,PropertyType,PropertySubType,Price,SaleType,BidStylePricing,ConstructionYear,BedroomCount,LivingArea,KitchenType,Furnished,Fireplace,Terrace,TerraceArea,Garden,GardenArea,SurfaceOfGood,Facades,SwimmingPool,Condition,EPCScore,EnergyConsumptionPerSqm,Latitude,Longitude,ListingCreateDate,ListingExpirationDate,ListingCloseDate,bookmarkCount,ViewCount
1,https://x/1,Rue A,BRUXELLES,1000,BRUSSELS,brussels,brussels,APARTMENT,FLAT_STUDIO,199999.5,residential_sale,0,2045,1,33.3,INSTALLED,,,1,8.25,,,,,0,AS_NEW,A_B,95.7,50.85,4.35,2024-03-15,15/09/2024,,2,31
2,https://x/2,Rue B,li` + "\uFFFD" + `ge,4000,WALLONIE,liege,liege,HOUSE,VILLA,575000,residential_sale,0,1978,4,210,HYPER_EQUIPPED,0,1,1,20,1,540.5,800,4,1,GOOD,C,-5,,,,,,,
3,https://x/3,Rue C,Gent,9000,FLANDERS,gent,oost-vlaanderen,HOUSE,HOUSE,365000,residential_sale,0,1930,3,165,SEMI_EQUIPPED,0,0,0,,1,120,300,2,0,TO_RENOVATE,E,420.4,51.05,3.72,2024-01-02,,2024-05-30,0,122
4,https://x/4,Rue D,Gent,9000,FLANDERS,gent,oost-vlaanderen,HOUSE,HOUSE,365000,residential_sale,0,1930,3,165,SEMI_EQUIPPED,0,0,0,,1,120,300,2,0,TO_RENOVATE,E,420.4,51.05,3.72,2024-01-02,,2024-05-30,0,122
5,https://x/5,Rue E,Leuven,3000,FLANDERS,leuven,vlaams-brabant,APARTMENT,APARTMENT,310000,residential_sale,1,2015,2,90,INSTALLED,0,0,1,10,0,,,2,0,AS_NEW,B,120,,,2024-02-02,,,1,40
`

func newNormalizer() *normalize.Normalizer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return normalize.NewNormalizer(normalize.Options{
		ConstructionYearTolerance: 10,
		Now:                       func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) },
	}, logger)
}

func TestListingsToTable_NormalizeIsIdempotent(t *testing.T) {
	raw, err := ParseCSV(strings.NewReader(rawListings), "raw_listings")
	require.NoError(t, err)

	first, _, err := newNormalizer().Normalize(raw)
	require.NoError(t, err)
	require.Len(t, first, 2, "row 2 has negative energy, row 4 duplicates row 3, row 5 is an auction")

	second, report, err := newNormalizer().Normalize(ListingsToTable(first))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, report.Dropped)
	assert.Zero(t, report.NulledYears)
}

func TestListingsToTable_Formatting(t *testing.T) {
	year := 1978
	created := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	l := models.Listing{
		ID:                1,
		PostalCode:        1000,
		Price:             1250000,
		LivingArea:        33.3,
		ConstructionYear:  &year,
		ListingCreateDate: &created,
	}

	tbl := ListingsToTable([]models.Listing{l})
	row := tbl.Rows[0]

	assert.Equal(t, "1250000", tbl.Cell(row, normalize.ColPrice))
	assert.Equal(t, "33.3", tbl.Cell(row, normalize.ColLivingArea))
	assert.Equal(t, "1978", tbl.Cell(row, normalize.ColConstructionYear))
	assert.Equal(t, "", tbl.Cell(row, normalize.ColBedroomCount))
	assert.Equal(t, "2024-03-15", tbl.Cell(row, normalize.ColListingCreateDate))
	assert.Equal(t, "", tbl.Cell(row, normalize.ColListingCloseDate))
	assert.False(t, tbl.Has(normalize.ColURL))
	assert.False(t, tbl.Has(normalize.ColStreet))
}

func TestEnrichedToTable(t *testing.T) {
	density := 1515.0
	rows := []models.EnrichedListing{
		{Listing: models.Listing{ID: 1, PostalCode: 1000}, PopulationDensity: &density},
		{Listing: models.Listing{ID: 2, PostalCode: 9999}},
	}

	tbl := EnrichedToTable(EnrichedTable, rows)

	assert.Equal(t, EnrichedTable, tbl.Name)
	assert.Equal(t, normalize.ColPopulationDensity, tbl.Header[len(tbl.Header)-1])
	assert.Equal(t, "1515", tbl.Cell(tbl.Rows[0], normalize.ColPopulationDensity))
	assert.Equal(t, "", tbl.Cell(tbl.Rows[1], normalize.ColPopulationDensity))
}

func TestUnitsToTable(t *testing.T) {
	units := []models.GeographicUnit{{
		AdministrativeCode: "21004",
		Municipality:       "Brussel",
		TotalPopulation:    50000,
		AreaHectares:       3300,
		PostalCodes:        []int64{1000, 1020},
		AreaKm2:            33,
		PopulationDensity:  1515,
	}}

	tbl := UnitsToTable(units)

	assert.Equal(t, UnitsHeader, tbl.Header)
	assert.Equal(t, []string{"21004", "Brussel", "50000", "3300", "1000,1020", "33", "1515"}, tbl.Rows[0])
}
