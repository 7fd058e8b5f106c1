// Package geometry renders the postal code feeds as GeoJSON for the map client.
package geometry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/analysis"
	"github.com/gnadela/immoeliza-analysis/internal/models"
)

// Output file names.
const (
	PostalPointsFile = "postal_codes.geojson"
	PostalHullsFile  = "postal_hulls.geojson"
)

// Price bands relative to the map colour range.
const (
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
)

// hullBuffer widens each hull by roughly 100m so single-street postal codes stay visible.
const hullBuffer = 0.001

// Builder turns analysis output and listing coordinates into feature collections.
type Builder struct {
	logger *logrus.Logger
}

func NewBuilder(logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Builder{logger: logger}
}

// PostalPoints places one point per postal code at its median coordinates. Summaries
// without coordinates are left out. low and high are the colour range of the map.
func (b *Builder) PostalPoints(summaries []analysis.PostalSummary, low, high float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	skipped := 0
	for _, s := range summaries {
		if s.Latitude == nil || s.Longitude == nil {
			skipped++
			continue
		}

		feature := geojson.NewFeature(orb.Point{*s.Longitude, *s.Latitude})
		feature.Properties = geojson.Properties{
			"postal_code":    s.PostalCode,
			"city":           s.City,
			"median_price":   s.MedianPrice,
			"property_count": s.PropertyCount,
			"price_band":     priceBand(s.MedianPrice, low, high),
		}
		if s.PopulationDensity != nil {
			feature.Properties["population_density"] = *s.PopulationDensity
		}
		fc.Append(feature)
	}

	if skipped > 0 {
		b.logger.WithField("postal_codes", skipped).Debug("Postal codes without coordinates left off the map")
	}
	return fc
}

// PostalHulls outlines each postal code with the buffered convex hull of its listing
// coordinates. Postal codes with fewer than three distinct points get no hull.
func (b *Builder) PostalHulls(listings []models.EnrichedListing) *geojson.FeatureCollection {
	type area struct {
		city   string
		points []orb.Point
	}
	areas := make(map[int64]*area)
	for _, l := range listings {
		if l.Latitude == nil || l.Longitude == nil {
			continue
		}
		a, ok := areas[l.PostalCode]
		if !ok {
			a = &area{city: l.City}
			areas[l.PostalCode] = a
		}
		a.points = append(a.points, orb.Point{*l.Longitude, *l.Latitude})
	}

	codes := make([]int64, 0, len(areas))
	for pc := range areas {
		codes = append(codes, pc)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	fc := geojson.NewFeatureCollection()
	for _, pc := range codes {
		a := areas[pc]
		hull := convexHull(a.points)
		if hull == nil {
			b.logger.WithFields(logrus.Fields{
				"postal_code": pc,
				"points":      len(a.points),
			}).Debug("Not enough points for a hull")
			continue
		}

		feature := geojson.NewFeature(orb.Polygon{bufferHull(hull, hullBuffer)})
		feature.Properties = geojson.Properties{
			"postal_code": pc,
			"city":        a.city,
			"point_count": len(a.points),
			"hull_type":   "convex",
		}
		fc.Append(feature)
	}
	return fc
}

// Save writes a feature collection, creating the parent directory.
func (b *Builder) Save(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	b.logger.Infof("Saved %d features to %s", len(fc.Features), path)
	return nil
}

func priceBand(price, low, high float64) string {
	switch {
	case price <= low:
		return BandLow
	case price >= high:
		return BandHigh
	default:
		return BandMid
	}
}
