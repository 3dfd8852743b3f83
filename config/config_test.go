package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.TelemetryInterval != time.Second {
		t.Errorf("Expected 1s telemetry interval, got %v", cfg.TelemetryInterval)
	}
	if cfg.GridInterval != 15*time.Minute {
		t.Errorf("Expected 15m grid interval, got %v", cfg.GridInterval)
	}
	if cfg.AnalyticsInterval != 5*time.Second {
		t.Errorf("Expected 5s analytics interval, got %v", cfg.AnalyticsInterval)
	}
	if cfg.AnalyticsLimit != 50 {
		t.Errorf("Expected analytics limit 50, got %d", cfg.AnalyticsLimit)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_BASE_URL", "http://gateway:9000")
	t.Setenv("TELEMETRY_INTERVAL", "250ms")
	t.Setenv("ANALYTICS_LIMIT", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.GatewayBaseURL != "http://gateway:9000" {
		t.Errorf("Gateway URL override not applied: %s", cfg.GatewayBaseURL)
	}
	if cfg.TelemetryInterval != 250*time.Millisecond {
		t.Errorf("Interval override not applied: %v", cfg.TelemetryInterval)
	}
	if cfg.AnalyticsLimit != 10 {
		t.Errorf("Limit override not applied: %d", cfg.AnalyticsLimit)
	}
}

func TestLoadConfig_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("TELEMETRY_INTERVAL", "not-a-duration")
	t.Setenv("ANALYTICS_LIMIT", "many")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.TelemetryInterval != time.Second {
		t.Errorf("Malformed duration should fall back to default, got %v", cfg.TelemetryInterval)
	}
	if cfg.AnalyticsLimit != 50 {
		t.Errorf("Malformed int should fall back to default, got %d", cfg.AnalyticsLimit)
	}
}
