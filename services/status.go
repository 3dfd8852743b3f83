package services

import "gridsense/models"

// Fixed classification thresholds in amperes. Comparison is strict, so a
// total of exactly 100 A is not critical and exactly 80 A is not a warning.
const (
	CriticalCurrentThreshold = 100.0
	WarningCurrentThreshold  = 80.0
)

// ClassifySystemStatus maps the current device set and anomaly list to a
// coarse health level. It is a pure function of its inputs and is the only
// producer of the system status; the status is never stored and mutated
// independently of the state it derives from.
func ClassifySystemStatus(devices map[string]models.DeviceSample, anomalies []models.Anomaly) models.SystemStatus {
	totalCurrent := 0.0
	hasFault := false
	for _, d := range devices {
		totalCurrent += d.Current
		if d.Status == models.DeviceFault {
			hasFault = true
		}
	}

	if totalCurrent > CriticalCurrentThreshold || hasFault || len(anomalies) > 0 {
		return models.StatusCritical
	}
	if totalCurrent > WarningCurrentThreshold {
		return models.StatusWarning
	}
	return models.StatusNormal
}

// StatusLevel converts a system status to its numeric severity for metrics.
func StatusLevel(s models.SystemStatus) float64 {
	switch s {
	case models.StatusCritical:
		return 2
	case models.StatusWarning:
		return 1
	default:
		return 0
	}
}
