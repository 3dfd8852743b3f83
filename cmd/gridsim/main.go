// gridsim is a standalone fake GridSense gateway for local development.
// It serves the full gateway contract with synthetic device telemetry,
// a rotating grid context and probabilistic anomalies, so the dashboard
// engine can run without the real backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gridsense/models"

	"go.uber.org/zap"
)

var (
	addr        = flag.String("addr", ":8000", "Listen address")
	anomalyProb = flag.Float64("anomaly", 0.05, "Probability of a current spike per device per poll (0.0-1.0)")
	failRate    = flag.Float64("fail", 0.0, "Probability of answering 500 to any request (0.0-1.0)")
	pathwayOff  = flag.Bool("pathway-off", false, "Report the pathway processor as inactive")
)

type deviceProfile struct {
	deviceType  models.DeviceType
	baseVoltage float64
	baseCurrent float64
}

type typeStats struct {
	count      int64
	sumCurrent float64
	sumPower   float64
	maxCurrent float64
}

type simulator struct {
	logger *zap.Logger

	mu        sync.Mutex
	profiles  map[string]deviceProfile
	powered   map[string]bool
	anomalies []models.Anomaly
	recs      []models.Recommendation
	stats     map[string]*typeStats
	grid      models.GridContext
}

func newSimulator(logger *zap.Logger) *simulator {
	profiles := map[string]deviceProfile{
		"MOTOR_001":      {models.DeviceMotor, 230, 32},
		"MOTOR_002":      {models.DeviceMotor, 230, 28},
		"HVAC_001":       {models.DeviceHVAC, 230, 18},
		"COMPRESSOR_001": {models.DeviceCompressor, 230, 24},
		"LIGHTING_001":   {models.DeviceLighting, 230, 6},
	}
	powered := make(map[string]bool, len(profiles))
	for id := range profiles {
		powered[id] = true
	}

	s := &simulator{
		logger:   logger,
		profiles: profiles,
		powered:  powered,
		stats:    make(map[string]*typeStats),
	}
	s.rotateGrid()
	return s
}

// rotateGrid picks a fresh grid context; tiers rotate so the engine sees
// pricing transitions without waiting 15 minutes.
func (s *simulator) rotateGrid() {
	tiers := []string{"LOW", "MEDIUM", "HIGH"}
	tier := tiers[rand.Intn(len(tiers))]

	price := 0.10
	carbon := 250.0
	switch tier {
	case "MEDIUM":
		price = 0.15
		carbon = 450.0
	case "HIGH":
		price = 0.27
		carbon = 650.0
	}

	now := float64(time.Now().UnixMilli()) / 1000
	renewable := 20 + rand.Float64()*60
	s.grid = models.GridContext{
		CarbonIntensity:         carbon,
		CarbonLevel:             tier,
		ElectricityPrice:        price,
		PricingTier:             tier,
		GridRenewablePercentage: renewable,
		RenewablePercentage:     renewable,
		Timestamp:               now,
		LastUpdated:             now,
	}
}

// sample produces a fresh reading for every device and feeds the synthetic
// analytics (anomalies, recommendations, per-type statistics).
func (s *simulator) sample() models.LiveResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := float64(time.Now().UnixMilli()) / 1000
	devices := make(map[string]models.DeviceSample, len(s.profiles))

	for id, profile := range s.profiles {
		status := models.DeviceRunning
		current := profile.baseCurrent * (0.9 + rand.Float64()*0.2)

		if !s.powered[id] {
			status = models.DeviceOff
			current = 0
		} else if rand.Float64() < *anomalyProb {
			status = models.DeviceStarting
			current = 100 + rand.Float64()*60
		}

		voltage := profile.baseVoltage * (0.98 + rand.Float64()*0.04)
		sample := models.DeviceSample{
			DeviceID:   id,
			DeviceType: profile.deviceType,
			Status:     status,
			Voltage:    voltage,
			Current:    current,
			Power:      voltage * current,
			Timestamp:  now,
		}
		devices[id] = sample

		s.record(sample)
	}

	return models.LiveResponse{Timestamp: now, Devices: devices}
}

func (s *simulator) record(sample models.DeviceSample) {
	st, ok := s.stats[string(sample.DeviceType)]
	if !ok {
		st = &typeStats{}
		s.stats[string(sample.DeviceType)] = st
	}
	st.count++
	st.sumCurrent += sample.Current
	st.sumPower += sample.Power
	if sample.Current > st.maxCurrent {
		st.maxCurrent = sample.Current
	}

	if sample.Current > 100 {
		alert := fmt.Sprintf("HIGH CURRENT: %.1fA", sample.Current)
		if sample.Status == models.DeviceStarting {
			alert = fmt.Sprintf("MOTOR INRUSH: %.1fA", sample.Current)
		}
		s.anomalies = append(s.anomalies, models.Anomaly{
			DeviceID:   sample.DeviceID,
			DeviceType: sample.DeviceType,
			Current:    sample.Current,
			Power:      sample.Power,
			Status:     sample.Status,
			Alert:      alert,
			Timestamp:  sample.Timestamp,
		})
		if len(s.anomalies) > 200 {
			s.anomalies = s.anomalies[len(s.anomalies)-200:]
		}
	}

	costPerHour := sample.Power / 1000 * s.grid.ElectricityPrice
	text := fmt.Sprintf("%s operating normally. Current cost: $%.2f/hr at $%.3f/kWh.",
		sample.DeviceID, costPerHour, s.grid.ElectricityPrice)
	if s.grid.PricingTier == "HIGH" && sample.Power > 500 {
		text = fmt.Sprintf("Grid Price is $%.3f/kWh (High). Stopping %s will save approx $%.2f/hour.",
			s.grid.ElectricityPrice, sample.DeviceID, costPerHour)
	}
	s.recs = append(s.recs, models.Recommendation{
		DeviceID:         sample.DeviceID,
		DeviceType:       sample.DeviceType,
		Current:          sample.Current,
		Power:            sample.Power,
		CarbonIntensity:  s.grid.CarbonIntensity,
		CarbonLevel:      s.grid.CarbonLevel,
		ElectricityPrice: s.grid.ElectricityPrice,
		PricingTier:      s.grid.PricingTier,
		RenewablePct:     s.grid.GridRenewablePercentage,
		Recommendation:   text,
		CostPerHour:      costPerHour,
		Timestamp:        sample.Timestamp,
	})
	if len(s.recs) > 200 {
		s.recs = s.recs[len(s.recs)-200:]
	}
}

func (s *simulator) failInjected(w http.ResponseWriter) bool {
	if *failRate > 0 && rand.Float64() < *failRate {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func parseLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (s *simulator) handleInternal(w http.ResponseWriter, r *http.Request) {
	if s.failInjected(w) {
		return
	}
	writeJSON(w, s.sample())
}

func (s *simulator) handleExternal(w http.ResponseWriter, r *http.Request) {
	if s.failInjected(w) {
		return
	}
	s.mu.Lock()
	s.rotateGrid()
	grid := s.grid
	s.mu.Unlock()
	writeJSON(w, grid)
}

func (s *simulator) handlePathwayStatus(w http.ResponseWriter, r *http.Request) {
	if s.failInjected(w) {
		return
	}
	active := !*pathwayOff
	message := "Pathway pipeline is running"
	if !active {
		message = "No Pathway output detected"
	}

	size := int64(4096)
	lines := int64(120)
	modified := float64(time.Now().Unix())
	files := make(map[string]models.PathwayFileInfo)
	for _, name := range []string{"anomalies.jsonl", "device_stats.jsonl", "recommendations.jsonl", "total_power.jsonl"} {
		if active {
			files[name] = models.PathwayFileInfo{Exists: true, SizeBytes: &size, LastModified: &modified, LineCount: &lines}
		} else {
			files[name] = models.PathwayFileInfo{Exists: false}
		}
	}

	writeJSON(w, models.PathwayStatusResponse{
		PathwayActive:   active,
		OutputDirectory: "pathway_output",
		Files:           files,
		Message:         message,
	})
}

func (s *simulator) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	if s.failInjected(w) {
		return
	}
	limit := parseLimit(r, 50)

	s.mu.Lock()
	anomalies := append([]models.Anomaly(nil), s.anomalies...)
	s.mu.Unlock()

	if len(anomalies) > limit {
		anomalies = anomalies[len(anomalies)-limit:]
	}
	writeJSON(w, models.AnomaliesResponse{Count: len(anomalies), Anomalies: anomalies})
}

func (s *simulator) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if s.failInjected(w) {
		return
	}
	limit := parseLimit(r, 50)

	s.mu.Lock()
	recs := append([]models.Recommendation(nil), s.recs...)
	s.mu.Unlock()

	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	writeJSON(w, models.RecommendationsResponse{Count: len(recs), Recommendations: recs})
}

func (s *simulator) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if s.failInjected(w) {
		return
	}

	s.mu.Lock()
	statistics := make(map[string]models.DeviceStats, len(s.stats))
	types := make([]string, 0, len(s.stats))
	for deviceType, st := range s.stats {
		types = append(types, deviceType)
		statistics[deviceType] = models.DeviceStats{
			DeviceType:   models.DeviceType(deviceType),
			AvgCurrent:   st.sumCurrent / float64(st.count),
			MaxCurrent:   st.maxCurrent,
			AvgPower:     st.sumPower / float64(st.count),
			TotalSamples: st.count,
		}
	}
	s.mu.Unlock()

	writeJSON(w, models.StatisticsResponse{DeviceTypes: types, Statistics: statistics})
}

// handleControl toggles the powered flag of a device.
// Path: /api/devices/{id}/control/{on|off}
func (s *simulator) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if s.failInjected(w) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "control" {
		http.NotFound(w, r)
		return
	}
	deviceID := parts[0]
	action := models.ControlAction(parts[2])
	if !action.Valid() {
		http.Error(w, "action must be on or off", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, known := s.profiles[deviceID]
	if known {
		s.powered[deviceID] = action == models.ActionOn
	}
	s.mu.Unlock()

	if !known {
		http.Error(w, "unknown device", http.StatusNotFound)
		return
	}

	deviceStatus := string(models.DeviceOff)
	if action == models.ActionOn {
		deviceStatus = string(models.DeviceRunning)
	}
	s.logger.Info("Control command applied",
		zap.String("device_id", deviceID),
		zap.String("action", string(action)))

	writeJSON(w, models.ControlResponse{
		Status:       "ok",
		Message:      fmt.Sprintf("device %s turned %s", deviceID, action),
		DeviceStatus: deviceStatus,
	})
}

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	sim := newSimulator(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/stream/internal", sim.handleInternal)
	mux.HandleFunc("/api/stream/external", sim.handleExternal)
	mux.HandleFunc("/api/pathway/status", sim.handlePathwayStatus)
	mux.HandleFunc("/api/pathway/anomalies", sim.handleAnomalies)
	mux.HandleFunc("/api/pathway/recommendations", sim.handleRecommendations)
	mux.HandleFunc("/api/pathway/statistics", sim.handleStatistics)
	mux.HandleFunc("/api/devices/", sim.handleControl)

	logger.Info("gridsim gateway listening",
		zap.String("addr", *addr),
		zap.Float64("anomaly_prob", *anomalyProb),
		zap.Float64("fail_rate", *failRate))

	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Fatal("gridsim server failed", zap.Error(err))
	}
}
