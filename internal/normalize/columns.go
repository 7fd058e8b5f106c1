package normalize

// Raw column names of the immo-eliza listing export.
const (
	ColID                      = "ID"
	ColURL                     = "Url"
	ColStreet                  = "Street"
	ColHouseNumber             = "HouseNumber"
	ColBox                     = "Box"
	ColFloor                   = "Floor"
	ColCity                    = "City"
	ColPostalCode              = "PostalCode"
	ColRegion                  = "Region"
	ColDistrict                = "District"
	ColProvince                = "Province"
	ColPropertyType            = "PropertyType"
	ColPropertySubType         = "PropertySubType"
	ColPrice                   = "Price"
	ColSaleType                = "SaleType"
	ColBidStylePricing         = "BidStylePricing"
	ColConstructionYear        = "ConstructionYear"
	ColBedroomCount            = "BedroomCount"
	ColLivingArea              = "LivingArea"
	ColKitchenType             = "KitchenType"
	ColFurnished               = "Furnished"
	ColFireplace               = "Fireplace"
	ColTerrace                 = "Terrace"
	ColTerraceArea             = "TerraceArea"
	ColGarden                  = "Garden"
	ColGardenArea              = "GardenArea"
	ColSurfaceOfGood           = "SurfaceOfGood"
	ColFacades                 = "Facades"
	ColSwimmingPool            = "SwimmingPool"
	ColCondition               = "Condition"
	ColEPCScore                = "EPCScore"
	ColEnergyConsumptionPerSqm = "EnergyConsumptionPerSqm"
	ColLatitude                = "Latitude"
	ColLongitude               = "Longitude"
	ColListingCreateDate       = "ListingCreateDate"
	ColListingExpirationDate   = "ListingExpirationDate"
	ColListingCloseDate        = "ListingCloseDate"
	ColBookmarkCount           = "bookmarkCount"
	ColViewCount               = "ViewCount"
	ColPropertyURL             = "PropertyUrl"

	// Derived columns written by the pipeline.
	ColTotalArea          = "TotalArea"
	ColPricePerLivingArea = "PricePerLivingSquareMeter"
	ColPricePerTotalArea  = "PricePerTotalSquareMeter"
	ColPricePerEnergyUnit = "PricePerEnergyUnit"
	ColKitchenCode        = "KitchenTypeCode"
	ColConditionCode      = "ConditionCode"
	ColEPCCode            = "EPCScoreCode"
	ColPopulationDensity  = "PopulationDensity"
)

// RequiredColumns must be present in the raw table; their absence is fatal.
var RequiredColumns = []string{
	ColID,
	ColPostalCode,
	ColPrice,
	ColLivingArea,
	ColSaleType,
	ColBidStylePricing,
	ColEnergyConsumptionPerSqm,
}

// DroppedColumns never reach the normalized table: street-level address and links.
var DroppedColumns = []string{
	ColURL,
	ColPropertyURL,
	ColStreet,
	ColHouseNumber,
	ColBox,
	ColFloor,
}

// TitleCaseColumns are categorical text columns normalized to title case.
var TitleCaseColumns = []string{
	ColCity,
	ColRegion,
	ColDistrict,
	ColProvince,
	ColPropertyType,
	ColPropertySubType,
	ColSaleType,
	ColKitchenType,
	ColCondition,
}

// FlagColumns are 0/1 amenity flags, filled with 0 when missing.
var FlagColumns = []string{
	ColFurnished,
	ColFireplace,
	ColTerrace,
	ColGarden,
	ColSwimmingPool,
}

// EngagementColumns are optional counters, filled with 0 when missing.
var EngagementColumns = []string{
	ColViewCount,
	ColBookmarkCount,
}

// ResidentialSale is the only sale type kept for modeling.
const ResidentialSale = "residential_sale"
