package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gridsense/config"
	"gridsense/models"
)

// Gateway is a typed client for the GridSense telemetry gateway. It covers
// the live device stream, the external grid context stream, the pathway
// analytics endpoints and device control commands.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// NewGateway creates a gateway client using the configured base URL and
// request timeout.
func NewGateway(cfg *config.Config) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(cfg.GatewayBaseURL, "/"),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// FetchLive retrieves the latest sample for every device.
func (g *Gateway) FetchLive(ctx context.Context) (models.LiveResponse, error) {
	var payload models.LiveResponse
	if err := g.getJSON(ctx, "/api/stream/internal", &payload); err != nil {
		return models.LiveResponse{}, err
	}
	return payload, nil
}

// FetchGrid retrieves the current grid pricing and carbon context.
func (g *Gateway) FetchGrid(ctx context.Context) (models.GridContext, error) {
	var payload models.GridContext
	if err := g.getJSON(ctx, "/api/stream/external", &payload); err != nil {
		return models.GridContext{}, err
	}
	return payload, nil
}

// FetchPathwayStatus reports whether the stream processor is producing output.
func (g *Gateway) FetchPathwayStatus(ctx context.Context) (models.PathwayStatusResponse, error) {
	var payload models.PathwayStatusResponse
	if err := g.getJSON(ctx, "/api/pathway/status", &payload); err != nil {
		return models.PathwayStatusResponse{}, err
	}
	return payload, nil
}

// FetchAnomalies retrieves the most recent anomalies, newest last.
func (g *Gateway) FetchAnomalies(ctx context.Context, limit int) (models.AnomaliesResponse, error) {
	var payload models.AnomaliesResponse
	path := "/api/pathway/anomalies?limit=" + strconv.Itoa(limit)
	if err := g.getJSON(ctx, path, &payload); err != nil {
		return models.AnomaliesResponse{}, err
	}
	return payload, nil
}

// FetchRecommendations retrieves the most recent optimization recommendations.
func (g *Gateway) FetchRecommendations(ctx context.Context, limit int) (models.RecommendationsResponse, error) {
	var payload models.RecommendationsResponse
	path := "/api/pathway/recommendations?limit=" + strconv.Itoa(limit)
	if err := g.getJSON(ctx, path, &payload); err != nil {
		return models.RecommendationsResponse{}, err
	}
	return payload, nil
}

// FetchStatistics retrieves aggregated statistics per device type.
func (g *Gateway) FetchStatistics(ctx context.Context) (models.StatisticsResponse, error) {
	var payload models.StatisticsResponse
	if err := g.getJSON(ctx, "/api/pathway/statistics", &payload); err != nil {
		return models.StatisticsResponse{}, err
	}
	return payload, nil
}

// ControlDevice issues exactly one on/off command for the given device.
func (g *Gateway) ControlDevice(ctx context.Context, deviceID string, action models.ControlAction) (models.ControlResponse, error) {
	if !action.Valid() {
		return models.ControlResponse{}, fmt.Errorf("invalid control action %q", action)
	}

	path := fmt.Sprintf("/api/devices/%s/control/%s", url.PathEscape(deviceID), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, nil)
	if err != nil {
		return models.ControlResponse{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return models.ControlResponse{}, fmt.Errorf("control %s/%s: %w", deviceID, action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ControlResponse{}, fmt.Errorf("control %s/%s: unexpected status %s", deviceID, action, resp.Status)
	}

	var payload models.ControlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.ControlResponse{}, fmt.Errorf("decode control response: %w", err)
	}
	return payload, nil
}

func (g *Gateway) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s payload: %w", path, err)
	}
	return nil
}
