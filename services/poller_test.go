package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gridsense/models"

	"go.uber.org/zap"
)

// fakeBackend is a scriptable stand-in for the GridSense gateway.
type fakeBackend struct {
	mu            sync.Mutex
	liveHits      int
	gridHits      int
	statusHits    int
	anomalyHits   int
	recHits       int
	statHits      int
	controlHits   int
	failLive      bool
	failRecs      bool
	pathwayActive bool
	liveCurrent   float64
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		switch r.URL.Path {
		case "/api/stream/internal":
			b.liveHits++
			if b.failLive {
				http.Error(w, "down", http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(models.LiveResponse{
				Timestamp: float64(b.liveHits),
				Devices: map[string]models.DeviceSample{
					"MOTOR_001": {
						DeviceID:   "MOTOR_001",
						DeviceType: models.DeviceMotor,
						Status:     models.DeviceRunning,
						Voltage:    230,
						Current:    b.liveCurrent,
						Power:      230 * b.liveCurrent,
					},
				},
			})
		case "/api/stream/external":
			b.gridHits++
			_ = json.NewEncoder(w).Encode(models.GridContext{ElectricityPrice: 0.15, PricingTier: "MEDIUM"})
		case "/api/pathway/status":
			b.statusHits++
			_ = json.NewEncoder(w).Encode(models.PathwayStatusResponse{PathwayActive: b.pathwayActive})
		case "/api/pathway/anomalies":
			b.anomalyHits++
			_ = json.NewEncoder(w).Encode(models.AnomaliesResponse{
				Count:     1,
				Anomalies: []models.Anomaly{{DeviceID: "MOTOR_001", Alert: "HIGH CURRENT: 120.0A"}},
			})
		case "/api/pathway/recommendations":
			b.recHits++
			if b.failRecs {
				http.Error(w, "down", http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(models.RecommendationsResponse{Count: 0})
		case "/api/pathway/statistics":
			b.statHits++
			_ = json.NewEncoder(w).Encode(models.StatisticsResponse{
				DeviceTypes: []string{"motor"},
				Statistics:  map[string]models.DeviceStats{"motor": {DeviceType: models.DeviceMotor, AvgCurrent: 30}},
			})
		default:
			if strings.HasPrefix(r.URL.Path, "/api/devices/") && r.Method == http.MethodPost {
				b.controlHits++
				_ = json.NewEncoder(w).Encode(models.ControlResponse{Status: "ok", DeviceStatus: "running"})
				return
			}
			http.NotFound(w, r)
		}
	})
}

func (b *fakeBackend) set(fn func(*fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) hits() (live, grid, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liveHits, b.gridHits, b.statusHits
}

func newTestPoller(t *testing.T, backend *fakeBackend) (*Poller, *Aggregator, func()) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	cfg := testConfig(srv.URL)
	agg := NewAggregator(zap.NewNop())
	poller := NewPoller(cfg, NewGateway(cfg), agg, nil, zap.NewNop())
	return poller, agg, srv.Close
}

func TestPollTelemetry_FailStale(t *testing.T) {
	backend := &fakeBackend{liveCurrent: 31.5}
	poller, agg, closeSrv := newTestPoller(t, backend)
	defer closeSrv()

	ctx := context.Background()
	poller.pollTelemetry(ctx)

	before := agg.Snapshot()
	if len(before.Devices) != 1 || len(before.Chart) != 1 {
		t.Fatalf("Expected one device and one chart point after first poll, got %d/%d",
			len(before.Devices), len(before.Chart))
	}

	backend.set(func(b *fakeBackend) { b.failLive = true })
	poller.pollTelemetry(ctx)

	after := agg.Snapshot()
	if len(after.Devices) != 1 || after.Devices[0].Current != before.Devices[0].Current {
		t.Error("Failed telemetry poll must leave devices unchanged")
	}
	if len(after.Chart) != 1 {
		t.Errorf("Failed telemetry poll must leave the chart unchanged, got %d points", len(after.Chart))
	}
}

func TestPollAnalytics_FailClosed(t *testing.T) {
	backend := &fakeBackend{pathwayActive: true, liveCurrent: 10}
	poller, agg, closeSrv := newTestPoller(t, backend)
	defer closeSrv()

	ctx := context.Background()
	poller.pollAnalytics(ctx)

	snap := agg.Snapshot()
	if !snap.PathwayActive {
		t.Fatal("Pathway should be active after a fully successful batch")
	}
	if len(snap.Anomalies) != 1 || len(snap.Statistics) != 1 {
		t.Fatalf("Analytics collections not applied: %d anomalies, %d stats",
			len(snap.Anomalies), len(snap.Statistics))
	}

	// One failing request in the batch discards the whole update
	backend.set(func(b *fakeBackend) { b.failRecs = true })
	poller.pollAnalytics(ctx)

	snap = agg.Snapshot()
	if snap.PathwayActive {
		t.Error("Partial batch failure must force pathway inactive")
	}
	if len(snap.Anomalies) != 1 || len(snap.Statistics) != 1 {
		t.Error("Partial batch failure must leave prior collections unchanged")
	}
}

func TestPollAnalytics_InactiveSkipsBatch(t *testing.T) {
	backend := &fakeBackend{pathwayActive: false}
	poller, agg, closeSrv := newTestPoller(t, backend)
	defer closeSrv()

	poller.pollAnalytics(context.Background())

	if agg.Snapshot().PathwayActive {
		t.Error("Pathway should be inactive")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.anomalyHits != 0 || backend.recHits != 0 || backend.statHits != 0 {
		t.Error("Inactive pathway must not trigger the analytics batch")
	}
}

func TestPoller_StartFiresAllStreamsImmediately(t *testing.T) {
	backend := &fakeBackend{pathwayActive: true, liveCurrent: 20}
	poller, agg, closeSrv := newTestPoller(t, backend)
	defer closeSrv()

	// Intervals are one hour in testConfig, so only the immediate first
	// executions can fire.
	poller.Start()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		live, grid, status := backend.hits()
		if live >= 1 && grid >= 1 && status >= 1 && len(agg.Snapshot().Devices) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	live, grid, status := backend.hits()
	if live < 1 || grid < 1 || status < 1 {
		t.Fatalf("Start must trigger one execution per stream, got live=%d grid=%d status=%d",
			live, grid, status)
	}
	if len(agg.Snapshot().Devices) != 1 {
		t.Fatal("Telemetry from the immediate execution should be applied")
	}

	poller.Stop()

	// No further executions after Stop returns
	liveBefore, gridBefore, statusBefore := backend.hits()
	time.Sleep(100 * time.Millisecond)
	liveAfter, gridAfter, statusAfter := backend.hits()
	if liveAfter != liveBefore || gridAfter != gridBefore || statusAfter != statusBefore {
		t.Error("Poll executions fired after Stop returned")
	}
}

func TestRefreshTelemetry_AppliesOutOfBand(t *testing.T) {
	backend := &fakeBackend{liveCurrent: 42}
	poller, agg, closeSrv := newTestPoller(t, backend)
	defer closeSrv()

	// The poller is not started; the refresh runs independently of any timer.
	if err := poller.RefreshTelemetry(context.Background()); err != nil {
		t.Fatalf("RefreshTelemetry failed: %v", err)
	}

	snap := agg.Snapshot()
	if len(snap.Devices) != 1 || snap.Devices[0].Current != 42 {
		t.Errorf("Out-of-band refresh did not apply telemetry: %+v", snap.Devices)
	}
}
