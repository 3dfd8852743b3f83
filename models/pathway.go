package models

// Types for the pathway analytics poll: anomalies, recommendations and
// per-device-type statistics derived by the external stream processor.
// The optional diff field is the processor's insert/delete marker on
// incremental output rows; entries with diff <= 0 are deletions.

// Anomaly is an anomalous device reading flagged by the stream processor
// (high current spikes, motor inrush, fault conditions).
type Anomaly struct {
	DeviceID   string       `json:"device_id"`
	DeviceType DeviceType   `json:"device_type"`
	Current    float64      `json:"current"`
	Power      float64      `json:"power"`
	Status     DeviceStatus `json:"status"`
	Alert      string       `json:"alert"`
	Timestamp  float64      `json:"timestamp"`
	Diff       *int         `json:"diff,omitempty"`
}

// Recommendation is an optimization suggestion joining device telemetry
// with the grid context in effect at the time.
type Recommendation struct {
	DeviceID         string     `json:"device_id"`
	DeviceType       DeviceType `json:"device_type"`
	Current          float64    `json:"current"`
	Power            float64    `json:"power"`
	CarbonIntensity  float64    `json:"carbon_intensity"`
	CarbonLevel      string     `json:"carbon_level"`
	ElectricityPrice float64    `json:"electricity_price"`
	PricingTier      string     `json:"pricing_tier"`
	RenewablePct     float64    `json:"renewable_pct"`
	Recommendation   string     `json:"recommendation"`
	CostPerHour      float64    `json:"cost_per_hour"`
	CarbonPerHour    *float64   `json:"carbon_per_hour,omitempty"`
	Timestamp        float64    `json:"timestamp"`
	Diff             *int       `json:"diff,omitempty"`
}

// DeviceStats holds aggregated statistics for one device type.
type DeviceStats struct {
	DeviceType   DeviceType `json:"device_type"`
	AvgCurrent   float64    `json:"avg_current"`
	MaxCurrent   float64    `json:"max_current"`
	AvgPower     float64    `json:"avg_power"`
	TotalSamples int64      `json:"total_samples"`
	Diff         *int       `json:"diff,omitempty"`
}

// PathwayFileInfo describes one output file of the stream processor.
type PathwayFileInfo struct {
	Exists       bool     `json:"exists"`
	SizeBytes    *int64   `json:"size_bytes,omitempty"`
	LastModified *float64 `json:"last_modified,omitempty"`
	LineCount    *int64   `json:"line_count,omitempty"`
}

// PathwayStatusResponse reports whether the stream processor is active.
type PathwayStatusResponse struct {
	PathwayActive   bool                       `json:"pathway_active"`
	OutputDirectory string                     `json:"output_directory"`
	Files           map[string]PathwayFileInfo `json:"files"`
	Message         string                     `json:"message"`
}

// AnomaliesResponse is the payload of the anomalies endpoint.
type AnomaliesResponse struct {
	Count     int       `json:"count"`
	Anomalies []Anomaly `json:"anomalies"`
}

// RecommendationsResponse is the payload of the recommendations endpoint.
type RecommendationsResponse struct {
	Count           int              `json:"count"`
	Recommendations []Recommendation `json:"recommendations"`
}

// StatisticsResponse is the payload of the statistics endpoint, keyed by
// device type.
type StatisticsResponse struct {
	DeviceTypes []string               `json:"device_types"`
	Statistics  map[string]DeviceStats `json:"statistics"`
}
