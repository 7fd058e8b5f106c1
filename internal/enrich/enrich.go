// Package enrich attaches population density to normalized listings.
package enrich

import (
	"github.com/gnadela/immoeliza-analysis/internal/geodensity"
	"github.com/gnadela/immoeliza-analysis/internal/models"
)

// Summary counts how many listings found a density.
type Summary struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	// UnmatchedPostalCodes lists each unresolved postal code once, in order of appearance.
	UnmatchedPostalCodes []int64 `json:"unmatched_postal_codes"`
}

// Enrich returns one enriched listing per input listing, in the same order.
// Listings whose postal code is not in the lookup keep a nil density.
func Enrich(listings []models.Listing, lookup geodensity.Lookup) []models.EnrichedListing {
	out, _ := EnrichWithSummary(listings, lookup)
	return out
}

// EnrichWithSummary is Enrich plus match counts.
func EnrichWithSummary(listings []models.Listing, lookup geodensity.Lookup) ([]models.EnrichedListing, Summary) {
	out := make([]models.EnrichedListing, len(listings))
	var summary Summary
	seen := make(map[int64]struct{})

	for i, l := range listings {
		out[i] = models.EnrichedListing{Listing: l}
		if density, ok := lookup.Density(l.PostalCode); ok {
			d := density
			out[i].PopulationDensity = &d
			summary.Matched++
			continue
		}
		summary.Unmatched++
		if _, dup := seen[l.PostalCode]; !dup {
			seen[l.PostalCode] = struct{}{}
			summary.UnmatchedPostalCodes = append(summary.UnmatchedPostalCodes, l.PostalCode)
		}
	}
	return out, summary
}
