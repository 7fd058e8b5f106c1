package outlier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnadela/immoeliza-analysis/internal/models"
)

// ErrUnknownColumn is returned for a target column the filter cannot read.
var ErrUnknownColumn = errors.New("unknown outlier column")

// Column names a numeric field of an enriched listing.
type Column string

// Columns the filter knows how to read. Names match the exported table headers.
const (
	Price                   Column = "Price"
	ConstructionYear        Column = "ConstructionYear"
	BedroomCount            Column = "BedroomCount"
	LivingArea              Column = "LivingArea"
	TerraceArea             Column = "TerraceArea"
	GardenArea              Column = "GardenArea"
	Facades                 Column = "Facades"
	EnergyConsumptionPerSqm Column = "EnergyConsumptionPerSqm"
	PricePerLivingArea      Column = "PricePerLivingSquareMeter"
	PricePerTotalArea       Column = "PricePerTotalSquareMeter"
	PopulationDensity       Column = "PopulationDensity"
)

// DefaultColumns is the filtering order of the model-ready table. Order matters:
// quartiles of each column are computed on the survivors of the previous ones.
var DefaultColumns = []Column{
	Price,
	ConstructionYear,
	BedroomCount,
	LivingArea,
	TerraceArea,
	GardenArea,
	Facades,
	EnergyConsumptionPerSqm,
	PricePerLivingArea,
	PricePerTotalArea,
	PopulationDensity,
}

type extractor func(r *models.EnrichedListing) (float64, bool)

var extractors = map[Column]extractor{
	Price:                   func(r *models.EnrichedListing) (float64, bool) { return r.Price, true },
	ConstructionYear:        func(r *models.EnrichedListing) (float64, bool) { return intValue(r.ConstructionYear) },
	BedroomCount:            func(r *models.EnrichedListing) (float64, bool) { return intValue(r.BedroomCount) },
	LivingArea:              func(r *models.EnrichedListing) (float64, bool) { return r.LivingArea, true },
	TerraceArea:             func(r *models.EnrichedListing) (float64, bool) { return r.TerraceArea, true },
	GardenArea:              func(r *models.EnrichedListing) (float64, bool) { return r.GardenArea, true },
	Facades:                 func(r *models.EnrichedListing) (float64, bool) { return intValue(r.Facades) },
	EnergyConsumptionPerSqm: func(r *models.EnrichedListing) (float64, bool) { return r.EnergyConsumptionPerSqm, true },
	PricePerLivingArea:      func(r *models.EnrichedListing) (float64, bool) { return r.PricePerLivingArea, true },
	PricePerTotalArea:       func(r *models.EnrichedListing) (float64, bool) { return r.PricePerTotalArea, true },
	PopulationDensity:       func(r *models.EnrichedListing) (float64, bool) { return floatValue(r.PopulationDensity) },
}

func intValue(v *int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

func floatValue(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Value reads the column from a row; ok is false when the field is null.
func (c Column) Value(r *models.EnrichedListing) (float64, bool, error) {
	ext, known := extractors[c]
	if !known {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownColumn, string(c))
	}
	v, ok := ext(r)
	return v, ok, nil
}

// ParseColumns resolves configured column names, case-insensitively.
func ParseColumns(names []string) ([]Column, error) {
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		col, ok := lookupColumn(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func lookupColumn(name string) (Column, bool) {
	for c := range extractors {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}
