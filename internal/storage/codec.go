package storage

import (
	"strconv"
	"time"

	"github.com/gnadela/immoeliza-analysis/internal/geodensity"
	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/normalize"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

// Stage table names, also used as output file stems.
const (
	CleanedTable           = "cleaned_data"
	EnrichedTable          = "enriched_data"
	ModelTable             = "model_data"
	PopulationDensityTable = "population_density"
)

const dateLayout = "2006-01-02"

type listingColumn struct {
	name  string
	value func(l *models.Listing) string
}

var listingColumns = []listingColumn{
	{normalize.ColID, func(l *models.Listing) string { return formatInt64(l.ID) }},
	{normalize.ColCity, func(l *models.Listing) string { return l.City }},
	{normalize.ColPostalCode, func(l *models.Listing) string { return formatInt64(l.PostalCode) }},
	{normalize.ColRegion, func(l *models.Listing) string { return l.Region }},
	{normalize.ColDistrict, func(l *models.Listing) string { return l.District }},
	{normalize.ColProvince, func(l *models.Listing) string { return l.Province }},
	{normalize.ColPropertyType, func(l *models.Listing) string { return l.PropertyType }},
	{normalize.ColPropertySubType, func(l *models.Listing) string { return l.PropertySubType }},
	{normalize.ColPrice, func(l *models.Listing) string { return formatFloat(l.Price) }},
	{normalize.ColSaleType, func(l *models.Listing) string { return l.SaleType }},
	{normalize.ColBidStylePricing, func(l *models.Listing) string { return strconv.Itoa(l.BidStylePricing) }},
	{normalize.ColConstructionYear, func(l *models.Listing) string { return formatIntPtr(l.ConstructionYear) }},
	{normalize.ColBedroomCount, func(l *models.Listing) string { return formatIntPtr(l.BedroomCount) }},
	{normalize.ColLivingArea, func(l *models.Listing) string { return formatFloat(l.LivingArea) }},
	{normalize.ColKitchenType, func(l *models.Listing) string { return l.KitchenType }},
	{normalize.ColKitchenCode, func(l *models.Listing) string { return formatIntPtr(l.KitchenCode) }},
	{normalize.ColFurnished, func(l *models.Listing) string { return strconv.Itoa(l.Furnished) }},
	{normalize.ColFireplace, func(l *models.Listing) string { return strconv.Itoa(l.Fireplace) }},
	{normalize.ColTerrace, func(l *models.Listing) string { return strconv.Itoa(l.Terrace) }},
	{normalize.ColTerraceArea, func(l *models.Listing) string { return formatFloat(l.TerraceArea) }},
	{normalize.ColGarden, func(l *models.Listing) string { return strconv.Itoa(l.Garden) }},
	{normalize.ColGardenArea, func(l *models.Listing) string { return formatFloat(l.GardenArea) }},
	{normalize.ColSurfaceOfGood, func(l *models.Listing) string { return formatFloatPtr(l.SurfaceOfGood) }},
	{normalize.ColFacades, func(l *models.Listing) string { return formatIntPtr(l.Facades) }},
	{normalize.ColSwimmingPool, func(l *models.Listing) string { return strconv.Itoa(l.SwimmingPool) }},
	{normalize.ColCondition, func(l *models.Listing) string { return l.Condition }},
	{normalize.ColConditionCode, func(l *models.Listing) string { return formatIntPtr(l.ConditionCode) }},
	{normalize.ColEPCScore, func(l *models.Listing) string { return l.EPCScore }},
	{normalize.ColEPCCode, func(l *models.Listing) string { return formatIntPtr(l.EPCCode) }},
	{normalize.ColEnergyConsumptionPerSqm, func(l *models.Listing) string { return formatFloat(l.EnergyConsumptionPerSqm) }},
	{normalize.ColLatitude, func(l *models.Listing) string { return formatFloatPtr(l.Latitude) }},
	{normalize.ColLongitude, func(l *models.Listing) string { return formatFloatPtr(l.Longitude) }},
	{normalize.ColListingCreateDate, func(l *models.Listing) string { return formatDate(l.ListingCreateDate) }},
	{normalize.ColListingExpirationDate, func(l *models.Listing) string { return formatDate(l.ListingExpirationDate) }},
	{normalize.ColListingCloseDate, func(l *models.Listing) string { return formatDate(l.ListingCloseDate) }},
	{normalize.ColBookmarkCount, func(l *models.Listing) string { return strconv.Itoa(l.BookmarkCount) }},
	{normalize.ColViewCount, func(l *models.Listing) string { return strconv.Itoa(l.ViewCount) }},
	{normalize.ColTotalArea, func(l *models.Listing) string { return formatFloat(l.TotalArea) }},
	{normalize.ColPricePerLivingArea, func(l *models.Listing) string { return formatFloat(l.PricePerLivingArea) }},
	{normalize.ColPricePerTotalArea, func(l *models.Listing) string { return formatFloat(l.PricePerTotalArea) }},
	{normalize.ColPricePerEnergyUnit, func(l *models.Listing) string { return formatFloat(l.PricePerEnergyUnit) }},
}

// ListingHeader is the column order of the cleaned table.
func ListingHeader() []string {
	header := make([]string, len(listingColumns))
	for i, c := range listingColumns {
		header[i] = c.name
	}
	return header
}

func listingRow(l *models.Listing) []string {
	row := make([]string, len(listingColumns))
	for i, c := range listingColumns {
		row[i] = c.value(l)
	}
	return row
}

// ListingsToTable renders normalized listings with exact numeric formatting, so
// normalizing the result again yields the same listings.
func ListingsToTable(listings []models.Listing) *table.Table {
	rows := make([][]string, len(listings))
	for i := range listings {
		rows[i] = listingRow(&listings[i])
	}
	return table.New(CleanedTable, ListingHeader(), rows)
}

// EnrichedToTable is ListingsToTable plus the PopulationDensity column.
func EnrichedToTable(name string, listings []models.EnrichedListing) *table.Table {
	header := append(ListingHeader(), normalize.ColPopulationDensity)
	rows := make([][]string, len(listings))
	for i := range listings {
		row := listingRow(&listings[i].Listing)
		rows[i] = append(row, formatFloatPtr(listings[i].PopulationDensity))
	}
	return table.New(name, header, rows)
}

// UnitsHeader is the column order of the population density export.
var UnitsHeader = []string{
	geodensity.ColSectorRefnis,
	geodensity.ColMunicipality,
	geodensity.ColSectorPopulation,
	geodensity.ColSectorArea,
	"PostalCodes",
	"AreaKm2",
	normalize.ColPopulationDensity,
}

// UnitsToTable renders resolved administrative units for export.
func UnitsToTable(units []models.GeographicUnit) *table.Table {
	rows := make([][]string, len(units))
	for i, u := range units {
		rows[i] = []string{
			u.AdministrativeCode,
			u.Municipality,
			formatFloat(u.TotalPopulation),
			formatFloat(u.AreaHectares),
			u.JoinedPostalCodes(),
			formatFloat(u.AreaKm2),
			formatFloat(u.PopulationDensity),
		}
	}
	return table.New(PopulationDensityTable, UnitsHeader, rows)
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
