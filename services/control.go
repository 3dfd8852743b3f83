package services

import (
	"context"
	"fmt"

	"gridsense/metrics"
	"gridsense/models"

	"go.uber.org/zap"
)

type deviceGateway interface {
	ControlDevice(ctx context.Context, deviceID string, action models.ControlAction) (models.ControlResponse, error)
}

type telemetryRefresher interface {
	RefreshTelemetry(ctx context.Context) error
}

// Controller issues device commands and shrinks the staleness window after a
// successful command by forcing one out-of-band telemetry refresh before
// returning to the caller.
type Controller struct {
	gateway   deviceGateway
	refresher telemetryRefresher
	logger    *zap.Logger
}

// NewController creates a control coordinator on top of the gateway client
// and the running poller.
func NewController(gateway deviceGateway, refresher telemetryRefresher, logger *zap.Logger) *Controller {
	return &Controller{
		gateway:   gateway,
		refresher: refresher,
		logger:    logger,
	}
}

// Control issues exactly one command for the device. On success the
// telemetry refresh has completed (or failed fail-stale) by the time Control
// returns. On command failure no refresh happens and state is untouched; the
// caller sees the pre-command state until the next scheduled tick.
func (c *Controller) Control(ctx context.Context, deviceID string, action models.ControlAction) (models.ControlResponse, error) {
	if !action.Valid() {
		return models.ControlResponse{}, fmt.Errorf("invalid control action %q", action)
	}

	resp, err := c.gateway.ControlDevice(ctx, deviceID, action)
	if err != nil {
		metrics.ControlCommands.WithLabelValues(string(action), "failure").Inc()
		c.logger.Error("Device control command failed",
			zap.String("device_id", deviceID),
			zap.String("action", string(action)),
			zap.Error(err))
		return models.ControlResponse{}, err
	}
	metrics.ControlCommands.WithLabelValues(string(action), "success").Inc()

	if err := c.refresher.RefreshTelemetry(ctx); err != nil {
		// The command itself succeeded; the scheduled telemetry loop will
		// pick the new device state up on its next tick.
		c.logger.Warn("Post-control telemetry refresh failed",
			zap.String("device_id", deviceID),
			zap.Error(err))
	}

	return resp, nil
}
