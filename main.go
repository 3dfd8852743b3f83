package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gridsense/api"
	"gridsense/config"
	"gridsense/log"
	"gridsense/services"

	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger := log.GetInstance()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize services
	gateway := services.NewGateway(cfg)
	aggregator := services.NewAggregator(logger)

	notifier, err := services.NewStatusNotifier(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
	}
	if notifier == nil {
		logger.Info("Telegram status alerts disabled")
	}

	poller := services.NewPoller(cfg, gateway, aggregator, notifier, logger)
	controller := services.NewController(gateway, poller, logger)
	server := api.New(cfg, aggregator, controller)

	logger.Info("GridSense dashboard engine started",
		zap.String("gateway", cfg.GatewayBaseURL),
		zap.Duration("telemetry_interval", cfg.TelemetryInterval),
		zap.Duration("grid_interval", cfg.GridInterval),
		zap.Duration("analytics_interval", cfg.AnalyticsInterval),
		zap.String("listen_addr", cfg.ListenAddr))

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping engine")
		cancel()
	}()

	// Start the polling loops, then serve snapshots until shutdown
	poller.Start()

	if err := server.Run(ctx); err != nil {
		logger.Error("API server error", zap.Error(err))
	}

	poller.Stop()
	logger.Info("GridSense dashboard engine stopped")
}
