package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridsense/config"
	"gridsense/models"
	"gridsense/services"

	"go.uber.org/zap"
)

type stubGateway struct {
	fail bool
}

func (s *stubGateway) ControlDevice(ctx context.Context, deviceID string, action models.ControlAction) (models.ControlResponse, error) {
	if s.fail {
		return models.ControlResponse{}, errors.New("gateway down")
	}
	return models.ControlResponse{Status: "ok", Message: "device " + deviceID + " turned " + string(action)}, nil
}

type stubRefresher struct{}

func (s *stubRefresher) RefreshTelemetry(ctx context.Context) error { return nil }

func newTestServer(gatewayFails bool) (*Server, *services.Aggregator) {
	cfg := &config.Config{ListenAddr: ":0"}
	agg := services.NewAggregator(zap.NewNop())
	controller := services.NewController(&stubGateway{fail: gatewayFails}, &stubRefresher{}, zap.NewNop())
	return New(cfg, agg, controller), agg
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestStateEndpoint(t *testing.T) {
	server, agg := newTestServer(false)
	agg.ApplyTelemetry(1, models.LiveResponse{
		Timestamp: 1700000000,
		Devices: map[string]models.DeviceSample{
			"MOTOR_001": {
				DeviceID:   "MOTOR_001",
				DeviceType: models.DeviceMotor,
				Status:     models.DeviceRunning,
				Voltage:    230,
				Current:    31.5,
				Power:      7245,
			},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	server.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("State payload is not a snapshot: %v", err)
	}
	if len(snap.Devices) != 1 || snap.Devices[0].DeviceID != "MOTOR_001" {
		t.Errorf("Unexpected devices in snapshot: %+v", snap.Devices)
	}
	if snap.TotalCurrent != 31.5 {
		t.Errorf("Expected total current 31.5, got %v", snap.TotalCurrent)
	}
	if len(snap.Chart) != 1 {
		t.Errorf("Expected one chart point, got %d", len(snap.Chart))
	}
}

func TestStateSummaryEndpoint(t *testing.T) {
	server, agg := newTestServer(false)
	agg.ApplyGrid(models.GridContext{ElectricityPrice: 0.15, PricingTier: "MEDIUM"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/state/summary", nil)
	server.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Summary is not valid JSON: %v", err)
	}
	if payload["system_status"] != string(models.StatusNormal) {
		t.Errorf("Expected normal status, got %v", payload["system_status"])
	}
}

func TestControlEndpoint(t *testing.T) {
	server, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/MOTOR_001/control/on", nil)
	server.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.ControlResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Control payload did not decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Unexpected control response: %+v", resp)
	}
}

func TestControlEndpoint_InvalidAction(t *testing.T) {
	server, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/MOTOR_001/control/reboot", nil)
	server.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid action, got %d", rec.Code)
	}
}

func TestControlEndpoint_GatewayFailure(t *testing.T) {
	server, _ := newTestServer(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices/MOTOR_001/control/off", nil)
	server.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502 on gateway failure, got %d", rec.Code)
	}
}
