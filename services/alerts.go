package services

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"gridsense/config"
	"gridsense/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// StatusNotifier sends Telegram alerts when the system status enters the
// critical level and a recovery message when it leaves it. Critical alerts
// are throttled; recovery messages are not.
type StatusNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	throttle time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	lastStatus  models.SystemStatus
	lastAlertAt time.Time
}

// NewStatusNotifier creates a notifier from the configuration. Returns
// (nil, nil) when Telegram alerting is not configured.
func NewStatusNotifier(cfg *config.Config, logger *zap.Logger) (*StatusNotifier, error) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}

	chatID, err := strconv.ParseInt(cfg.TelegramChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing chat ID: %w", err)
	}

	logger.Info("Telegram status alerts enabled", zap.String("username", bot.Self.UserName))

	return &StatusNotifier{
		bot:        bot,
		chatID:     chatID,
		throttle:   cfg.AlertThrottle,
		logger:     logger,
		lastStatus: models.StatusNormal,
	}, nil
}

// Observe inspects a snapshot and sends an alert on status transitions.
func (n *StatusNotifier) Observe(snap models.Snapshot) {
	n.mu.Lock()
	prev := n.lastStatus
	n.lastStatus = snap.SystemStatus

	var message string
	now := time.Now()

	switch {
	case snap.SystemStatus == models.StatusCritical && prev != models.StatusCritical:
		if now.Sub(n.lastAlertAt) < n.throttle {
			n.logger.Debug("Throttling critical status alert")
			n.mu.Unlock()
			return
		}
		n.lastAlertAt = now
		message = formatCriticalMessage(snap)
	case snap.SystemStatus != models.StatusCritical && prev == models.StatusCritical:
		message = formatRecoveryMessage(snap)
	}
	n.mu.Unlock()

	if message == "" {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("Failed to send status alert", zap.Error(err))
		return
	}
	n.logger.Info("Status alert sent", zap.String("status", string(snap.SystemStatus)))
}

func formatCriticalMessage(snap models.Snapshot) string {
	faults := 0
	for _, d := range snap.Devices {
		if d.Status == models.DeviceFault {
			faults++
		}
	}

	return fmt.Sprintf(
		"🚨 <b>GridSense: CRITICAL</b>\n\n"+
			"Total current: <b>%.1f A</b>\n"+
			"Total power: <b>%.0f W</b>\n"+
			"Devices in fault: <b>%d</b>\n"+
			"Active anomalies: <b>%d</b>\n"+
			"Estimated cost: <b>$%.2f/hr</b>",
		snap.TotalCurrent, snap.TotalPower, faults, len(snap.Anomalies), snap.EstimatedCost)
}

func formatRecoveryMessage(snap models.Snapshot) string {
	return fmt.Sprintf(
		"✅ <b>GridSense: recovered</b>\n\n"+
			"Status is now <b>%s</b> (total current %.1f A)",
		snap.SystemStatus, snap.TotalCurrent)
}
