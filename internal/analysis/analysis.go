// Package analysis computes the visualization feeds of the model table.
package analysis

import (
	"sort"
	"strings"

	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/outlier"
)

// Bedroom distribution filters.
const (
	MaxBedrooms = 12
	MaxPrice    = 1000000
)

// DefaultPropertyType is the property type mapped when none is requested.
const DefaultPropertyType = "HOUSE"

// BedroomStats is the price per living square metre distribution of one bedroom count.
type BedroomStats struct {
	Bedrooms int     `json:"bedrooms"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
}

// BedroomDistribution groups listings with 0 to 12 bedrooms, a price up to one million
// and a positive living area by bedroom count. Groups are ordered by bedroom count.
func BedroomDistribution(listings []models.EnrichedListing) []BedroomStats {
	groups := make(map[int][]float64)
	for _, l := range listings {
		if l.BedroomCount == nil || *l.BedroomCount < 0 || *l.BedroomCount > MaxBedrooms {
			continue
		}
		if l.Price <= 0 || l.Price > MaxPrice || l.LivingArea <= 0 {
			continue
		}
		groups[*l.BedroomCount] = append(groups[*l.BedroomCount], l.Price/l.LivingArea)
	}

	stats := make([]BedroomStats, 0, len(groups))
	for bedrooms, values := range groups {
		sort.Float64s(values)
		q1, median, q3 := outlier.Quartiles(values)
		stats = append(stats, BedroomStats{
			Bedrooms: bedrooms,
			Count:    len(values),
			Min:      values[0],
			Q1:       q1,
			Median:   median,
			Q3:       q3,
			Max:      values[len(values)-1],
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Bedrooms < stats[j].Bedrooms })
	return stats
}

// PostalSummary is the median listing of one postal code.
type PostalSummary struct {
	PostalCode        int64    `json:"postal_code"`
	City              string   `json:"city"`
	PropertyCount     int      `json:"property_count"`
	MedianPrice       float64  `json:"median_price"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	PopulationDensity *float64 `json:"population_density"`
}

// PostalSummaries groups listings of one property type by postal code, ordered by
// postal code. An empty property type selects DefaultPropertyType. Coordinates are
// medians of the listings that have them, nil when none do.
func PostalSummaries(listings []models.EnrichedListing, propertyType string) []PostalSummary {
	if propertyType == "" {
		propertyType = DefaultPropertyType
	}

	type group struct {
		summary    PostalSummary
		prices     []float64
		latitudes  []float64
		longitudes []float64
	}
	groups := make(map[int64]*group)

	for _, l := range listings {
		if !strings.EqualFold(l.PropertyType, propertyType) {
			continue
		}
		g, ok := groups[l.PostalCode]
		if !ok {
			g = &group{summary: PostalSummary{PostalCode: l.PostalCode, City: l.City}}
			groups[l.PostalCode] = g
		}
		g.prices = append(g.prices, l.Price)
		if l.Latitude != nil {
			g.latitudes = append(g.latitudes, *l.Latitude)
		}
		if l.Longitude != nil {
			g.longitudes = append(g.longitudes, *l.Longitude)
		}
		if g.summary.PopulationDensity == nil && l.PopulationDensity != nil {
			d := *l.PopulationDensity
			g.summary.PopulationDensity = &d
		}
	}

	summaries := make([]PostalSummary, 0, len(groups))
	for _, g := range groups {
		s := g.summary
		s.PropertyCount = len(g.prices)
		s.MedianPrice = outlier.Quantile(g.prices, 0.5)
		s.Latitude = median(g.latitudes)
		s.Longitude = median(g.longitudes)
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].PostalCode < summaries[j].PostalCode })
	return summaries
}

// PriceRange returns the 10th and 90th percentile of the median prices, the colour
// range of the postal code map. Both are 0 without summaries.
func PriceRange(summaries []PostalSummary) (low, high float64) {
	if len(summaries) == 0 {
		return 0, 0
	}
	prices := make([]float64, len(summaries))
	for i, s := range summaries {
		prices[i] = s.MedianPrice
	}
	return outlier.Quantile(prices, 0.1), outlier.Quantile(prices, 0.9)
}

func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := outlier.Quantile(values, 0.5)
	return &m
}
