package models

import "time"

// Run summarizes one pipeline execution.
type Run struct {
	ID                string     `json:"id" gorm:"primaryKey;size:36"`
	Status            string     `json:"status" gorm:"size:16"`
	Error             string     `json:"error,omitempty"`
	RawRows           int        `json:"raw_rows"`
	CleanedRows       int        `json:"cleaned_rows"`
	EnrichedMatched   int        `json:"enriched_matched"`
	EnrichedUnmatched int        `json:"enriched_unmatched"`
	ModelRows         int        `json:"model_rows"`
	DensityCollisions int        `json:"density_collisions"`
	StartedAt         time.Time  `json:"started_at" gorm:"index"`
	FinishedAt        *time.Time `json:"finished_at"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

type ListingStats struct {
	TotalListings     int     `json:"total_listings"`
	AveragePrice      float64 `json:"average_price"`
	MedianPrice       float64 `json:"median_price"`
	PricePerSqm       float64 `json:"price_per_sqm"`
	AverageDensity    float64 `json:"average_density"`
	TotalHouses       int     `json:"total_houses"`
	TotalApartments   int     `json:"total_apartments"`
	AverageLivingArea float64 `json:"average_living_area"`
}

type AreaStats struct {
	PostalCode        int64    `json:"postal_code"`
	City              string   `json:"city"`
	PropertyCount     int      `json:"property_count"`
	AveragePrice      float64  `json:"average_price"`
	MedianPrice       float64  `json:"median_price"`
	AvgPricePerSqm    float64  `json:"avg_price_per_sqm"`
	PopulationDensity *float64 `json:"population_density"`
}

// ListingFilter narrows listing queries; zero values mean no filter.
type ListingFilter struct {
	PostalCode   int64
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	Limit        int
}

// Run triggers.
const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
)

// RunRequest asks the worker to execute the pipeline once.
type RunRequest struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}
