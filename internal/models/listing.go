package models

import "time"

// Listing is one normalized real-estate listing.
type Listing struct {
	ID         int64  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	PostalCode int64  `json:"postal_code" gorm:"index"`
	City       string `json:"city"`
	Region     string `json:"region"`
	District   string `json:"district"`
	Province   string `json:"province"`

	PropertyType    string `json:"property_type"`
	PropertySubType string `json:"property_sub_type"`
	SaleType        string `json:"sale_type"`
	BidStylePricing int    `json:"bid_style_pricing"`
	KitchenType     string `json:"kitchen_type"`
	KitchenCode     *int   `json:"kitchen_code"`
	Condition       string `json:"condition"`
	ConditionCode   *int   `json:"condition_code"`
	EPCScore        string `json:"epc_score"`
	EPCCode         *int   `json:"epc_code"`

	ConstructionYear *int     `json:"construction_year"`
	BedroomCount     *int     `json:"bedroom_count"`
	Facades          *int     `json:"facades"`
	LivingArea       float64  `json:"living_area"`
	TerraceArea      float64  `json:"terrace_area"`
	GardenArea       float64  `json:"garden_area"`
	SurfaceOfGood    *float64 `json:"surface_of_good"`

	Furnished    int `json:"furnished"`
	Fireplace    int `json:"fireplace"`
	Terrace      int `json:"terrace"`
	Garden       int `json:"garden"`
	SwimmingPool int `json:"swimming_pool"`

	Price                   float64  `json:"price"`
	EnergyConsumptionPerSqm float64  `json:"energy_consumption_per_sqm"`
	Latitude                *float64 `json:"latitude"`
	Longitude               *float64 `json:"longitude"`

	ViewCount     int `json:"view_count"`
	BookmarkCount int `json:"bookmark_count"`

	ListingCreateDate     *time.Time `json:"listing_create_date"`
	ListingExpirationDate *time.Time `json:"listing_expiration_date"`
	ListingCloseDate      *time.Time `json:"listing_close_date"`

	// Derived during normalization
	TotalArea          float64 `json:"total_area"`
	PricePerLivingArea float64 `json:"price_per_living_area"`
	PricePerTotalArea  float64 `json:"price_per_total_area"`
	PricePerEnergyUnit float64 `json:"price_per_energy_unit"`
}

// EnrichedListing is a Listing with the population density of its postal code.
// PopulationDensity is nil when the postal code could not be resolved.
type EnrichedListing struct {
	Listing
	PopulationDensity *float64 `json:"population_density"`
}
