package geodensity

import (
	"errors"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

// Reference table column names (Statbel exports).
const (
	ColPostalCode       = "Postal code"
	ColRefnisCode       = "Refnis code"
	ColMunicipality     = "Gemeentenaam"
	ColSectorRefnis     = "CD_REFNIS"
	ColSectorPopulation = "TOTAL"
	ColSectorArea       = "OPPERVLAKKTE IN HM²"
)

// Table names used in structural errors.
const (
	PostalRefTable   = "postal_refnis"
	SectorStatsTable = "sector_data"
)

// hectaresToKm2 converts the Statbel area unit to square kilometres.
const hectaresToKm2 = 0.01

// ErrNoUsableSectors is returned when no administrative code has a positive area after aggregation.
var ErrNoUsableSectors = errors.New("no usable sectors after aggregation")

// Lookup maps a postal code to its population density.
type Lookup map[int64]float64

// Density returns the density of a postal code, ok is false when unresolved.
func (l Lookup) Density(postalCode int64) (float64, bool) {
	d, ok := l[postalCode]
	return d, ok
}

// Collision records a postal code claimed by more than one administrative code.
type Collision struct {
	PostalCode int64    `json:"postal_code"`
	Chosen     string   `json:"chosen"`
	Candidates []string `json:"candidates"`
}

// Resolution is the output of Resolve.
type Resolution struct {
	Units      []models.GeographicUnit `json:"units"`
	Lookup     Lookup                  `json:"lookup"`
	Collisions []Collision             `json:"collisions"`
	// Unmapped lists administrative codes with population data but no postal code.
	Unmapped []string `json:"unmapped"`
	// ZeroArea lists administrative codes skipped because their area sums to zero.
	ZeroArea []string `json:"zero_area"`
}

// Resolver builds the postal code to population density lookup.
type Resolver struct {
	logger *logrus.Logger
}

// NewResolver creates a resolver. A nil logger logs JSON to stdout.
func NewResolver(logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Resolver{logger: logger}
}

type postalGroup struct {
	codes        []int64
	seen         map[int64]struct{}
	municipality string
}

type sectorTotals struct {
	population float64
	area       float64
}

// Resolve joins the postal reference table to the aggregated sector statistics.
// Aggregating sub-sectors into their administrative code loses the distribution
// inside the code; the density is an average over the whole code.
func (r *Resolver) Resolve(postalRef, sectorStats *table.Table) (*Resolution, error) {
	if err := table.Require(postalRef, PostalRefTable, ColPostalCode, ColRefnisCode); err != nil {
		return nil, err
	}
	if err := table.Require(sectorStats, SectorStatsTable, ColSectorRefnis, ColSectorPopulation, ColSectorArea); err != nil {
		return nil, err
	}

	groups := groupPostalCodes(postalRef)
	totals := aggregateSectors(sectorStats)

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	res := &Resolution{Lookup: make(Lookup)}
	for _, code := range codes {
		t := totals[code]
		if t.area <= 0 {
			res.ZeroArea = append(res.ZeroArea, code)
			continue
		}

		unit := models.GeographicUnit{
			AdministrativeCode: code,
			TotalPopulation:    t.population,
			AreaHectares:       t.area,
			AreaKm2:            t.area * hectaresToKm2,
		}
		unit.PopulationDensity = math.RoundToEven(unit.TotalPopulation / unit.AreaKm2)

		if g, ok := groups[code]; ok {
			unit.PostalCodes = g.codes
			unit.Municipality = g.municipality
		} else {
			res.Unmapped = append(res.Unmapped, code)
		}
		res.Units = append(res.Units, unit)
	}

	if len(res.Units) == 0 {
		return nil, ErrNoUsableSectors
	}

	res.Lookup, res.Collisions = flatten(res.Units)

	r.logger.WithFields(logrus.Fields{
		"administrative_codes": len(res.Units),
		"postal_codes":         len(res.Lookup),
		"unmapped":             len(res.Unmapped),
		"zero_area":            len(res.ZeroArea),
		"collisions":           len(res.Collisions),
	}).Info("Resolved population density")

	if len(res.Unmapped) > 0 {
		r.logger.WithField("codes", res.Unmapped).Warn("Administrative codes without postal mapping")
	}
	for _, c := range res.Collisions {
		r.logger.WithFields(logrus.Fields{
			"postal_code": c.PostalCode,
			"chosen":      c.Chosen,
			"candidates":  c.Candidates,
		}).Warn("Postal code claimed by several administrative codes")
	}

	return res, nil
}

// flatten expands units into one density per postal code. When several codes claim a
// postal code, the largest population wins and ties go to the smaller code.
func flatten(units []models.GeographicUnit) (Lookup, []Collision) {
	claims := make(map[int64][]int)
	var order []int64
	for i, u := range units {
		for _, pc := range u.PostalCodes {
			if _, ok := claims[pc]; !ok {
				order = append(order, pc)
			}
			claims[pc] = append(claims[pc], i)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	lookup := make(Lookup, len(order))
	var collisions []Collision
	for _, pc := range order {
		idx := claims[pc]
		best := idx[0]
		for _, i := range idx[1:] {
			if outranks(units[i], units[best]) {
				best = i
			}
		}
		lookup[pc] = units[best].PopulationDensity

		if len(idx) > 1 {
			candidates := make([]string, len(idx))
			for k, i := range idx {
				candidates[k] = units[i].AdministrativeCode
			}
			sort.Strings(candidates)
			collisions = append(collisions, Collision{
				PostalCode: pc,
				Chosen:     units[best].AdministrativeCode,
				Candidates: candidates,
			})
		}
	}
	return lookup, collisions
}

func outranks(a, b models.GeographicUnit) bool {
	if a.TotalPopulation != b.TotalPopulation {
		return a.TotalPopulation > b.TotalPopulation
	}
	return a.AdministrativeCode < b.AdministrativeCode
}

func groupPostalCodes(t *table.Table) map[string]*postalGroup {
	groups := make(map[string]*postalGroup)
	for _, row := range t.Rows {
		code := adminCode(t.Cell(row, ColRefnisCode))
		pc, ok := parseCode(t.Cell(row, ColPostalCode))
		if code == "" || !ok {
			continue
		}
		g, exists := groups[code]
		if !exists {
			g = &postalGroup{seen: make(map[int64]struct{})}
			groups[code] = g
		}
		if g.municipality == "" {
			g.municipality = t.Cell(row, ColMunicipality)
		}
		if _, dup := g.seen[pc]; dup {
			continue
		}
		g.seen[pc] = struct{}{}
		g.codes = append(g.codes, pc)
	}
	return groups
}

// aggregateSectors sums population and area per administrative code. Missing values
// contribute nothing to the sums.
func aggregateSectors(t *table.Table) map[string]*sectorTotals {
	totals := make(map[string]*sectorTotals)
	for _, row := range t.Rows {
		code := adminCode(t.Cell(row, ColSectorRefnis))
		if code == "" {
			continue
		}
		s, ok := totals[code]
		if !ok {
			s = &sectorTotals{}
			totals[code] = s
		}
		s.population += parseNumber(t.Cell(row, ColSectorPopulation))
		s.area += parseNumber(t.Cell(row, ColSectorArea))
	}
	return totals
}

// adminCode canonicalizes a REFNIS code so "21004" and "21004.0" are the same key.
func adminCode(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func parseCode(s string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
