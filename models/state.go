package models

import "time"

// SystemStatus is the coarse health classification of the whole facility.
type SystemStatus string

const (
	StatusNormal   SystemStatus = "normal"
	StatusWarning  SystemStatus = "warning"
	StatusCritical SystemStatus = "critical"
)

// ChartPoint is one entry of the rolling total-current chart window.
type ChartPoint struct {
	Timestamp float64 `json:"timestamp"`
	Current   float64 `json:"current"`
}

// Snapshot is a self-contained copy of the engine's canonical state handed
// to the view layer. Devices are sorted by device_id for stable rendering.
// Mutating a snapshot never affects engine state.
type Snapshot struct {
	Devices         []DeviceSample         `json:"devices"`
	GridContext     *GridContext           `json:"grid_context,omitempty"`
	Chart           []ChartPoint           `json:"chart"`
	PathwayActive   bool                   `json:"pathway_active"`
	Anomalies       []Anomaly              `json:"anomalies"`
	Recommendations []Recommendation       `json:"recommendations"`
	Statistics      map[string]DeviceStats `json:"statistics"`
	SystemStatus    SystemStatus           `json:"system_status"`

	// Derived metrics, recomputed from the raw state on every snapshot.
	TotalCurrent  float64 `json:"total_current"`
	TotalPower    float64 `json:"total_power"`
	AvgVoltage    float64 `json:"avg_voltage"`
	EstimatedCost float64 `json:"estimated_cost"`

	LastTelemetryAt time.Time `json:"last_telemetry_at"`
	LastGridAt      time.Time `json:"last_grid_at"`
	LastAnalyticsAt time.Time `json:"last_analytics_at"`
}
