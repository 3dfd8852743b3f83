package services

import (
	"sort"
	"sync"
	"time"

	"gridsense/metrics"
	"gridsense/models"

	"go.uber.org/zap"
)

// Aggregator owns the canonical dashboard state. The three polling streams
// and the control refresh all write through it; readers take snapshots.
//
// The two failure policies are deliberately different and must stay that way:
// telemetry and grid are fail-stale (a failed fetch leaves the last good data
// in place), while the analytics bundle is fail-closed (any failure forces
// pathwayActive to false, because "is the processor active" must default to
// the conservative answer).
type Aggregator struct {
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool

	devices         map[string]models.DeviceSample
	grid            *models.GridContext
	window          *ChartWindow
	pathwayActive   bool
	anomalies       []models.Anomaly
	recommendations []models.Recommendation
	statistics      map[string]models.DeviceStats

	// Sequence of the last applied telemetry response. Responses are tagged
	// when issued; an older response arriving after a newer one has been
	// applied is discarded, so the device set is last-issued-wins rather
	// than last-resolved-wins.
	lastTelemetrySeq uint64

	lastTelemetryAt time.Time
	lastGridAt      time.Time
	lastAnalyticsAt time.Time
}

// NewAggregator creates an empty aggregator: no devices, no grid context,
// empty chart window, pathway inactive.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{
		logger:     logger,
		devices:    make(map[string]models.DeviceSample),
		window:     NewChartWindow(ChartWindowSize),
		statistics: make(map[string]models.DeviceStats),
	}
}

// ApplyTelemetry replaces the device set wholesale and appends the summed
// current to the chart window. Returns false when the update was discarded
// (torn-down aggregator or stale sequence).
func (a *Aggregator) ApplyTelemetry(seq uint64, payload models.LiveResponse) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}
	if seq <= a.lastTelemetrySeq {
		metrics.StaleResponsesDiscarded.Inc()
		a.logger.Debug("Discarding stale telemetry response",
			zap.Uint64("seq", seq),
			zap.Uint64("last_applied", a.lastTelemetrySeq))
		return false
	}

	devices := make(map[string]models.DeviceSample, len(payload.Devices))
	for id, sample := range payload.Devices {
		devices[id] = sample
	}
	a.devices = devices

	ts := payload.Timestamp
	if ts == 0 {
		ts = float64(time.Now().UnixMilli()) / 1000
	}
	a.window.Push(models.ChartPoint{Timestamp: ts, Current: sumCurrent(devices)})

	a.lastTelemetrySeq = seq
	a.lastTelemetryAt = time.Now()
	a.publishMetricsLocked()
	return true
}

// ApplyGrid replaces the grid context wholesale.
func (a *Aggregator) ApplyGrid(gc models.GridContext) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.grid = &gc
	a.lastGridAt = time.Now()
	a.publishMetricsLocked()
}

// ApplyAnalytics replaces the anomaly, recommendation and statistics
// collections and marks the pathway active. Callers must only invoke it when
// the whole analytics batch succeeded.
func (a *Aggregator) ApplyAnalytics(anomalies []models.Anomaly, recommendations []models.Recommendation, statistics map[string]models.DeviceStats) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.anomalies = append([]models.Anomaly(nil), anomalies...)
	a.recommendations = append([]models.Recommendation(nil), recommendations...)
	stats := make(map[string]models.DeviceStats, len(statistics))
	for k, v := range statistics {
		stats[k] = v
	}
	a.statistics = stats
	a.pathwayActive = true
	a.lastAnalyticsAt = time.Now()

	metrics.PathwayActive.Set(1)
	a.publishMetricsLocked()
}

// SetPathwayInactive forces the pathway flag off while leaving the last
// known anomalies, recommendations and statistics in place.
func (a *Aggregator) SetPathwayInactive() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.pathwayActive = false
	metrics.PathwayActive.Set(0)
}

// SystemStatus classifies the current state.
func (a *Aggregator) SystemStatus() models.SystemStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return ClassifySystemStatus(a.devices, a.anomalies)
}

// Snapshot returns a deep copy of the canonical state with all derived
// metrics recomputed. Devices are sorted by device_id for stable rendering.
func (a *Aggregator) Snapshot() models.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	devices := make([]models.DeviceSample, 0, len(a.devices))
	for _, sample := range a.devices {
		devices = append(devices, sample)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })

	var grid *models.GridContext
	if a.grid != nil {
		gc := *a.grid
		grid = &gc
	}

	stats := make(map[string]models.DeviceStats, len(a.statistics))
	for k, v := range a.statistics {
		stats[k] = v
	}

	totalPower := sumPower(a.devices)
	snapshot := models.Snapshot{
		Devices:         devices,
		GridContext:     grid,
		Chart:           a.window.Points(),
		PathwayActive:   a.pathwayActive,
		Anomalies:       append([]models.Anomaly(nil), a.anomalies...),
		Recommendations: append([]models.Recommendation(nil), a.recommendations...),
		Statistics:      stats,
		SystemStatus:    ClassifySystemStatus(a.devices, a.anomalies),
		TotalCurrent:    sumCurrent(a.devices),
		TotalPower:      totalPower,
		AvgVoltage:      meanVoltage(a.devices),
		EstimatedCost:   estimatedCost(totalPower, a.grid),
		LastTelemetryAt: a.lastTelemetryAt,
		LastGridAt:      a.lastGridAt,
		LastAnalyticsAt: a.lastAnalyticsAt,
	}
	return snapshot
}

// Close marks the aggregator torn down. Every subsequent apply becomes a
// no-op, so in-flight responses resolving after engine stop cannot mutate
// dead state.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

func (a *Aggregator) publishMetricsLocked() {
	totalPower := sumPower(a.devices)
	metrics.TotalCurrent.Set(sumCurrent(a.devices))
	metrics.TotalPower.Set(totalPower)
	metrics.EstimatedCost.Set(estimatedCost(totalPower, a.grid))
	metrics.ChartWindowLength.Set(float64(a.window.Len()))
	metrics.SystemStatusLevel.Set(StatusLevel(ClassifySystemStatus(a.devices, a.anomalies)))
}

func sumCurrent(devices map[string]models.DeviceSample) float64 {
	total := 0.0
	for _, d := range devices {
		total += d.Current
	}
	return total
}

func sumPower(devices map[string]models.DeviceSample) float64 {
	total := 0.0
	for _, d := range devices {
		total += d.Power
	}
	return total
}

func meanVoltage(devices map[string]models.DeviceSample) float64 {
	if len(devices) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range devices {
		total += d.Voltage
	}
	return total / float64(len(devices))
}

func estimatedCost(totalPower float64, grid *models.GridContext) float64 {
	if grid == nil {
		return 0
	}
	return totalPower / 1000 * grid.ElectricityPrice
}
