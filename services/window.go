package services

import "gridsense/models"

// ChartWindowSize is the fixed capacity of the rolling chart window.
const ChartWindowSize = 30

// ChartWindow is an append-only FIFO of chart points with a fixed capacity.
// When full, pushing evicts the oldest point. Arrival order is preserved;
// points are never reordered or deduplicated by timestamp.
//
// ChartWindow is not safe for concurrent use; the aggregator serializes
// access under its own lock.
type ChartWindow struct {
	points []models.ChartPoint
	cap    int
}

// NewChartWindow creates an empty window with the given capacity.
func NewChartWindow(capacity int) *ChartWindow {
	if capacity <= 0 {
		capacity = ChartWindowSize
	}
	return &ChartWindow{
		points: make([]models.ChartPoint, 0, capacity),
		cap:    capacity,
	}
}

// Push appends a point, evicting the oldest entry when the window is full.
func (w *ChartWindow) Push(p models.ChartPoint) {
	if len(w.points) == w.cap {
		copy(w.points, w.points[1:])
		w.points[len(w.points)-1] = p
		return
	}
	w.points = append(w.points, p)
}

// Len returns the number of points currently held.
func (w *ChartWindow) Len() int {
	return len(w.points)
}

// Points returns a copy of the window contents in arrival order.
func (w *ChartWindow) Points() []models.ChartPoint {
	out := make([]models.ChartPoint, len(w.points))
	copy(out, w.points)
	return out
}
