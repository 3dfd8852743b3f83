package models

// GridContext is the external pricing and carbon signal for the grid the
// facility draws from. It is refreshed at low frequency and treated as
// "latest known" with no interpolation between refreshes.
type GridContext struct {
	CarbonIntensity         float64 `json:"carbon_intensity"`
	CarbonLevel             string  `json:"carbon_level"`
	ElectricityPrice        float64 `json:"electricity_price"`
	PricingTier             string  `json:"pricing_tier"`
	GridRenewablePercentage float64 `json:"grid_renewable_percentage"`
	RenewablePercentage     float64 `json:"renewable_percentage"`
	Timestamp               float64 `json:"timestamp"`
	LastUpdated             float64 `json:"last_updated"`
}
