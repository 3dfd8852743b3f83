// Package metrics exposes Prometheus instrumentation for the polling engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal counts poll executions per stream and outcome.
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsense_polls_total",
			Help: "Total number of poll executions by stream and outcome",
		},
		[]string{"stream", "outcome"},
	)

	// PollDuration measures poll execution latency per stream.
	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridsense_poll_duration_seconds",
			Help:    "Poll execution duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stream"},
	)

	// StaleResponsesDiscarded counts telemetry responses dropped because a
	// newer response was already applied.
	StaleResponsesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridsense_stale_responses_discarded_total",
			Help: "Telemetry responses discarded by the sequence guard",
		},
	)

	// ControlCommands counts device control commands by action and outcome.
	ControlCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridsense_control_commands_total",
			Help: "Device control commands issued by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// TotalCurrent is the facility-wide current draw in amperes.
	TotalCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsense_total_current_amperes",
			Help: "Sum of current across all devices",
		},
	)

	// TotalPower is the facility-wide power consumption in watts.
	TotalPower = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsense_total_power_watts",
			Help: "Sum of power across all devices",
		},
	)

	// EstimatedCost is the estimated cost per hour at the current price.
	EstimatedCost = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsense_estimated_cost_per_hour",
			Help: "Estimated cost per hour at the latest electricity price",
		},
	)

	// SystemStatusLevel encodes the health classification (0 normal,
	// 1 warning, 2 critical).
	SystemStatusLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsense_system_status_level",
			Help: "System status (0=normal, 1=warning, 2=critical)",
		},
	)

	// ChartWindowLength is the number of points in the rolling chart window.
	ChartWindowLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsense_chart_window_length",
			Help: "Number of points currently held in the chart window",
		},
	)

	// PathwayActive reports whether the stream processor was active on the
	// most recent successful analytics poll.
	PathwayActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridsense_pathway_active",
			Help: "Whether the pathway stream processor is active (0/1)",
		},
	)
)
