package models

import (
	"strconv"
	"strings"
)

// GeographicUnit is one administrative statistical sector (REFNIS code) after
// aggregation of its sub-sectors.
type GeographicUnit struct {
	AdministrativeCode string  `json:"administrative_code"`
	Municipality       string  `json:"municipality"`
	TotalPopulation    float64 `json:"total_population"`
	AreaHectares       float64 `json:"area_hectares"`
	PostalCodes        []int64 `json:"postal_codes"`
	AreaKm2            float64 `json:"area_km2"`
	PopulationDensity  float64 `json:"population_density"`
}

// JoinedPostalCodes renders the postal codes as "1000,1020".
func (u GeographicUnit) JoinedPostalCodes() string {
	parts := make([]string, len(u.PostalCodes))
	for i, pc := range u.PostalCodes {
		parts[i] = strconv.FormatInt(pc, 10)
	}
	return strings.Join(parts, ",")
}
