package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Gateway connection
	GatewayBaseURL string
	RequestTimeout time.Duration

	// Poll cadences for the three independent streams
	TelemetryInterval time.Duration
	GridInterval      time.Duration
	AnalyticsInterval time.Duration

	// Maximum entries requested from the anomaly/recommendation endpoints
	AnalyticsLimit int

	// Snapshot API
	ListenAddr string

	// Optional Telegram alerting on critical status transitions
	TelegramBotToken string
	TelegramChatID   string
	AlertThrottle    time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		GatewayBaseURL:    getEnv("GATEWAY_BASE_URL", "http://localhost:8000"),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		TelemetryInterval: getEnvDuration("TELEMETRY_INTERVAL", time.Second),
		GridInterval:      getEnvDuration("GRID_INTERVAL", 15*time.Minute),
		AnalyticsInterval: getEnvDuration("ANALYTICS_INTERVAL", 5*time.Second),
		AnalyticsLimit:    getEnvInt("ANALYTICS_LIMIT", 50),
		ListenAddr:        getEnv("LISTEN_ADDR", ":8090"),
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
		AlertThrottle:     getEnvDuration("ALERT_THROTTLE", 5*time.Minute),
	}

	if config.GatewayBaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_BASE_URL must not be empty")
	}
	if config.TelemetryInterval <= 0 || config.GridInterval <= 0 || config.AnalyticsInterval <= 0 {
		return nil, fmt.Errorf("poll intervals must be positive")
	}
	if config.AnalyticsLimit <= 0 {
		return nil, fmt.Errorf("ANALYTICS_LIMIT must be positive")
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
