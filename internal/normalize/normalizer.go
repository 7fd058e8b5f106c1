package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

// Drop reasons reported by the normalizer.
const (
	DropMissingRequired    = "missing_required"
	DropDuplicateID        = "duplicate_id"
	DropDuplicateContent   = "duplicate_content"
	DropNotResidentialSale = "not_residential_sale"
	DropBidStylePricing    = "bid_style_pricing"
	DropMissingEnergy      = "missing_energy_consumption"
	DropInvalidDenominator = "invalid_denominator"
)

// Options tune the normalizer.
type Options struct {
	// ConstructionYearTolerance is how many years past the current one a construction
	// year may lie before it is treated as a data-entry error.
	ConstructionYearTolerance int
	// Now is the clock used for construction-year and two-digit-year checks.
	Now func() time.Time
}

// Report counts what normalization did to the raw table.
type Report struct {
	InputRows          int            `json:"input_rows"`
	OutputRows         int            `json:"output_rows"`
	Dropped            map[string]int `json:"dropped"`
	NulledYears        int            `json:"nulled_construction_years"`
	UnparsedDates      int            `json:"unparsed_dates"`
	ClampedEnergy      int            `json:"clamped_energy"`
	UnmappedCategories map[string]int `json:"unmapped_categories"`
}

func newReport(inputRows int) *Report {
	return &Report{
		InputRows:          inputRows,
		Dropped:            make(map[string]int),
		UnmappedCategories: make(map[string]int),
	}
}

// Normalizer turns the raw listing table into clean, typed listings.
type Normalizer struct {
	logger        *logrus.Logger
	now           func() time.Time
	yearTolerance int
	title         cases.Caser
}

// NewNormalizer creates a normalizer. A nil logger logs JSON to stdout.
func NewNormalizer(opts Options, logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Normalizer{
		logger:        logger,
		now:           opts.Now,
		yearTolerance: opts.ConstructionYearTolerance,
		title:         cases.Title(language.Und),
	}
}

// rawFacts carries per-row information that does not survive into models.Listing.
type rawFacts struct {
	energy *float64
}

// Normalize cleans the raw table. Only structural problems are returned as errors;
// bad values become nulls or dropped rows, counted in the report.
func (n *Normalizer) Normalize(raw *table.Table) ([]models.Listing, *Report, error) {
	if err := table.Require(raw, "raw_listings", RequiredColumns...); err != nil {
		return nil, nil, err
	}

	now := n.now()
	report := newReport(raw.Len())
	seenIDs := make(map[int64]struct{}, raw.Len())
	seenContent := make(map[string]struct{}, raw.Len())
	result := make([]models.Listing, 0, raw.Len())

	for _, row := range raw.Rows {
		// 1. required measurements
		price := parseFloat(raw.Cell(row, ColPrice))
		livingArea := parseFloat(raw.Cell(row, ColLivingArea))
		id := parseInt(raw.Cell(row, ColID))
		if price == nil || livingArea == nil || id == nil {
			report.Dropped[DropMissingRequired]++
			continue
		}

		// 2a. identity
		if _, dup := seenIDs[*id]; dup {
			report.Dropped[DropDuplicateID]++
			continue
		}
		seenIDs[*id] = struct{}{}

		// 3. residential sales at a fixed price only
		if !strings.EqualFold(cleanText(raw.Cell(row, ColSaleType)), ResidentialSale) {
			report.Dropped[DropNotResidentialSale]++
			continue
		}
		if parseFlag(raw.Cell(row, ColBidStylePricing)) != 0 {
			report.Dropped[DropBidStylePricing]++
			continue
		}

		// 4-11. coercion
		listing, facts := n.convertRow(raw, row, now, report)
		listing.ID = *id
		listing.Price = *price
		listing.LivingArea = *livingArea
		if facts.energy != nil {
			listing.EnergyConsumptionPerSqm = *facts.energy
		}

		// 2b. re-scraped duplicates under a new id
		key := contentKey(listing, facts.energy != nil)
		if _, dup := seenContent[key]; dup {
			report.Dropped[DropDuplicateContent]++
			continue
		}
		seenContent[key] = struct{}{}

		// 12. remaining required values and denominator guards
		if facts.energy == nil {
			report.Dropped[DropMissingEnergy]++
			continue
		}
		listing.TotalArea = listing.LivingArea + listing.GardenArea + listing.TerraceArea
		if listing.Price <= 0 || listing.LivingArea <= 0 || listing.TotalArea <= 0 || listing.EnergyConsumptionPerSqm == 0 {
			report.Dropped[DropInvalidDenominator]++
			continue
		}

		// 13. derived fields
		listing.PricePerLivingArea = roundHalfEven(listing.Price / listing.LivingArea)
		listing.PricePerTotalArea = roundHalfEven(listing.Price / listing.TotalArea)
		listing.PricePerEnergyUnit = roundHalfEven(listing.Price / listing.EnergyConsumptionPerSqm)

		result = append(result, listing)
	}

	report.OutputRows = len(result)
	n.logReport(report)
	return result, report, nil
}

// convertRow applies steps 4 to 11 to a single raw row.
func (n *Normalizer) convertRow(raw *table.Table, row []string, now time.Time, report *Report) (models.Listing, rawFacts) {
	var l models.Listing

	texts := map[string]*string{
		ColCity:            &l.City,
		ColRegion:          &l.Region,
		ColDistrict:        &l.District,
		ColProvince:        &l.Province,
		ColPropertyType:    &l.PropertyType,
		ColPropertySubType: &l.PropertySubType,
		ColSaleType:        &l.SaleType,
		ColKitchenType:     &l.KitchenType,
		ColCondition:       &l.Condition,
	}
	for _, col := range TitleCaseColumns {
		*texts[col] = n.titleCase(cleanText(raw.Cell(row, col)))
	}

	flags := map[string]*int{
		ColFurnished:    &l.Furnished,
		ColFireplace:    &l.Fireplace,
		ColTerrace:      &l.Terrace,
		ColGarden:       &l.Garden,
		ColSwimmingPool: &l.SwimmingPool,
	}
	for _, col := range FlagColumns {
		*flags[col] = parseFlag(raw.Cell(row, col))
	}

	counts := map[string]*int{
		ColViewCount:     &l.ViewCount,
		ColBookmarkCount: &l.BookmarkCount,
	}
	for _, col := range EngagementColumns {
		*counts[col] = parseCount(raw.Cell(row, col))
	}

	if pc := parseInt(raw.Cell(row, ColPostalCode)); pc != nil {
		l.PostalCode = *pc
	}
	l.BidStylePricing = parseFlag(raw.Cell(row, ColBidStylePricing))
	l.BedroomCount = parseSmallInt(raw.Cell(row, ColBedroomCount))
	l.Facades = parseSmallInt(raw.Cell(row, ColFacades))
	l.SurfaceOfGood = parseFloat(raw.Cell(row, ColSurfaceOfGood))
	l.Latitude = parseFloat(raw.Cell(row, ColLatitude))
	l.Longitude = parseFloat(raw.Cell(row, ColLongitude))
	l.TerraceArea = valueOrZero(parseFloat(raw.Cell(row, ColTerraceArea)))
	l.GardenArea = valueOrZero(parseFloat(raw.Cell(row, ColGardenArea)))

	// 8. future construction years are data-entry errors
	if year := parseSmallInt(raw.Cell(row, ColConstructionYear)); year != nil {
		if *year > now.Year()+n.yearTolerance {
			report.NulledYears++
		} else {
			l.ConstructionYear = year
		}
	}

	// 9. EPC sub-variants collapse to their class
	l.EPCScore = truncateEPC(cleanText(raw.Cell(row, ColEPCScore)))

	n.applyOrdinals(&l, report)

	// 10. lifecycle dates
	dates := map[string]**time.Time{
		ColListingCreateDate:     &l.ListingCreateDate,
		ColListingExpirationDate: &l.ListingExpirationDate,
		ColListingCloseDate:      &l.ListingCloseDate,
	}
	for _, col := range []string{ColListingCreateDate, ColListingExpirationDate, ColListingCloseDate} {
		cell := raw.Cell(row, col)
		d := parseDate(cell, now)
		if d == nil && !isNull(cell) {
			report.UnparsedDates++
		}
		*dates[col] = d
	}

	// 11. negative consumption is a scrape artifact
	energy := parseFloat(raw.Cell(row, ColEnergyConsumptionPerSqm))
	if energy != nil && *energy < 0 {
		zero := 0.0
		energy = &zero
		report.ClampedEnergy++
	}

	return l, rawFacts{energy: energy}
}

func (n *Normalizer) applyOrdinals(l *models.Listing, report *Report) {
	lookups := []struct {
		ordinal Ordinal
		value   string
		target  **int
	}{
		{ConditionOrdinal, l.Condition, &l.ConditionCode},
		{KitchenOrdinal, l.KitchenType, &l.KitchenCode},
		{EPCOrdinal, l.EPCScore, &l.EPCCode},
	}
	for _, lk := range lookups {
		if lk.value == "" {
			continue
		}
		code, ok := lk.ordinal.Lookup(lk.value)
		if !ok {
			report.UnmappedCategories[fmt.Sprintf("%s:%s", lk.ordinal.Name, lk.value)]++
			continue
		}
		*lk.target = &code
	}
}

// titleCase capitalizes every word, counting "_" as a word break: "AS_NEW" becomes "As_New".
func (n *Normalizer) titleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		parts[i] = n.title.String(p)
	}
	return strings.Join(parts, "_")
}

// contentKey identifies a listing by its normalized values except the id, so raw cells
// that normalize alike, such as "brussels" and "BRUSSELS", count as duplicates.
func contentKey(l models.Listing, hasEnergy bool) string {
	l.ID = 0
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Sprintf("%+v|%t", l, hasEnergy)
	}
	return fmt.Sprintf("%s|%t", data, hasEnergy)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (n *Normalizer) logReport(r *Report) {
	fields := logrus.Fields{
		"input_rows":     r.InputRows,
		"output_rows":    r.OutputRows,
		"nulled_years":   r.NulledYears,
		"unparsed_dates": r.UnparsedDates,
		"clamped_energy": r.ClampedEnergy,
	}
	for reason, count := range r.Dropped {
		fields["dropped_"+reason] = count
	}
	n.logger.WithFields(fields).Info("Normalized raw listings")

	if len(r.UnmappedCategories) > 0 {
		n.logger.WithField("unmapped", r.UnmappedCategories).Warn("Categories without an ordinal code")
	}
}
