package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gridsense/config"
	"gridsense/metrics"
	"gridsense/models"

	"go.uber.org/zap"
)

// Poller owns the three repeating fetch tasks: live telemetry (fast), grid
// context (slow) and pathway analytics (medium). The tasks share nothing but
// the aggregator; a slow execution on one stream never delays the others,
// and within one stream a slow execution never delays the next tick.
type Poller struct {
	cfg      *config.Config
	gateway  *Gateway
	agg      *Aggregator
	notifier *StatusNotifier
	logger   *zap.Logger

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	telemetrySeq atomic.Uint64
}

// NewPoller creates a poller. The notifier may be nil when alerting is not
// configured.
func NewPoller(cfg *config.Config, gateway *Gateway, agg *Aggregator, notifier *StatusNotifier, logger *zap.Logger) *Poller {
	return &Poller{
		cfg:      cfg,
		gateway:  gateway,
		agg:      agg,
		notifier: notifier,
		logger:   logger,
	}
}

// Start launches all three polling loops. Each loop fires one execution
// immediately and then repeats on its own period. Start must be called at
// most once per poller.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.runLoop(ctx, "telemetry", p.cfg.TelemetryInterval, p.pollTelemetry)
	p.runLoop(ctx, "grid", p.cfg.GridInterval, p.pollGrid)
	p.runLoop(ctx, "analytics", p.cfg.AnalyticsInterval, p.pollAnalytics)
}

// Stop tears the engine down: the aggregator stops accepting writes, all
// loops are cancelled, and Stop returns only after every loop and in-flight
// execution has finished. No callback mutates state after Stop returns.
func (p *Poller) Stop() {
	p.agg.Close()
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("Poller stopped")
}

// RefreshTelemetry runs one out-of-band telemetry execution, independent of
// the running 1s schedule. The control coordinator uses it so the dashboard
// reflects a command's effect before the next scheduled tick.
func (p *Poller) RefreshTelemetry(ctx context.Context) error {
	return p.fetchTelemetryOnce(ctx)
}

func (p *Poller) runLoop(ctx context.Context, stream string, interval time.Duration, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logger.Info("Polling loop started",
			zap.String("stream", stream),
			zap.Duration("interval", interval))

		p.spawn(ctx, fn)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Polling loop stopped", zap.String("stream", stream))
				return
			case <-ticker.C:
				// Each tick runs in its own goroutine so an execution that
				// outlives the period overlaps the next one instead of
				// delaying or skipping it.
				p.spawn(ctx, fn)
			}
		}
	}()
}

func (p *Poller) spawn(ctx context.Context, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn(ctx)
	}()
}

func (p *Poller) pollTelemetry(ctx context.Context) {
	if err := p.fetchTelemetryOnce(ctx); err != nil {
		p.logger.Warn("Telemetry poll failed, keeping last good devices", zap.Error(err))
	}
}

// fetchTelemetryOnce performs one telemetry fetch-and-apply. The sequence
// number is taken when the request is issued; the aggregator discards
// responses that lost the race against a newer one.
func (p *Poller) fetchTelemetryOnce(ctx context.Context) error {
	seq := p.telemetrySeq.Add(1)
	start := time.Now()

	payload, err := p.gateway.FetchLive(ctx)
	metrics.PollDuration.WithLabelValues("telemetry").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PollsTotal.WithLabelValues("telemetry", "failure").Inc()
		return err
	}
	metrics.PollsTotal.WithLabelValues("telemetry", "success").Inc()

	if p.agg.ApplyTelemetry(seq, payload) {
		p.observeStatus()
	}
	return nil
}

func (p *Poller) pollGrid(ctx context.Context) {
	start := time.Now()
	gc, err := p.gateway.FetchGrid(ctx)
	metrics.PollDuration.WithLabelValues("grid").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PollsTotal.WithLabelValues("grid", "failure").Inc()
		p.logger.Warn("Grid poll failed, keeping last known context", zap.Error(err))
		return
	}
	metrics.PollsTotal.WithLabelValues("grid", "success").Inc()
	p.agg.ApplyGrid(gc)
}

// pollAnalytics fetches the pathway status and, when the processor is
// active, the anomaly/recommendation/statistics bundle. The bundle is all or
// nothing: any failure discards the whole update and forces the pathway
// inactive, unlike the fail-stale telemetry and grid paths.
func (p *Poller) pollAnalytics(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.PollDuration.WithLabelValues("analytics").Observe(time.Since(start).Seconds())
	}()

	status, err := p.gateway.FetchPathwayStatus(ctx)
	if err != nil {
		metrics.PollsTotal.WithLabelValues("analytics", "failure").Inc()
		p.logger.Warn("Pathway status fetch failed, forcing pathway inactive", zap.Error(err))
		p.agg.SetPathwayInactive()
		return
	}

	if !status.PathwayActive {
		metrics.PollsTotal.WithLabelValues("analytics", "success").Inc()
		p.agg.SetPathwayInactive()
		return
	}

	var (
		anomalies       models.AnomaliesResponse
		recommendations models.RecommendationsResponse
		statistics      models.StatisticsResponse
	)
	errs := make([]error, 3)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		anomalies, errs[0] = p.gateway.FetchAnomalies(ctx, p.cfg.AnalyticsLimit)
	}()
	go func() {
		defer wg.Done()
		recommendations, errs[1] = p.gateway.FetchRecommendations(ctx, p.cfg.AnalyticsLimit)
	}()
	go func() {
		defer wg.Done()
		statistics, errs[2] = p.gateway.FetchStatistics(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			metrics.PollsTotal.WithLabelValues("analytics", "failure").Inc()
			p.logger.Warn("Analytics batch failed, forcing pathway inactive", zap.Error(err))
			p.agg.SetPathwayInactive()
			return
		}
	}

	metrics.PollsTotal.WithLabelValues("analytics", "success").Inc()
	p.agg.ApplyAnalytics(anomalies.Anomalies, recommendations.Recommendations, statistics.Statistics)
	p.observeStatus()
}

func (p *Poller) observeStatus() {
	if p.notifier == nil {
		return
	}
	p.notifier.Observe(p.agg.Snapshot())
}
