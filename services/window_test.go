package services

import (
	"testing"

	"gridsense/models"
)

func TestChartWindow_FillsToCapacity(t *testing.T) {
	w := NewChartWindow(ChartWindowSize)

	for i := 0; i < ChartWindowSize; i++ {
		w.Push(models.ChartPoint{Timestamp: float64(i), Current: float64(i)})
	}

	if w.Len() != ChartWindowSize {
		t.Fatalf("Expected length %d, got %d", ChartWindowSize, w.Len())
	}

	points := w.Points()
	if points[0].Timestamp != 0 {
		t.Errorf("Expected first point timestamp 0, got %v", points[0].Timestamp)
	}
	if points[len(points)-1].Timestamp != float64(ChartWindowSize-1) {
		t.Errorf("Expected last point timestamp %d, got %v", ChartWindowSize-1, points[len(points)-1].Timestamp)
	}
}

func TestChartWindow_EvictsOldestOnOverflow(t *testing.T) {
	w := NewChartWindow(ChartWindowSize)

	// Push 31 samples into a 30-slot window
	for i := 1; i <= ChartWindowSize+1; i++ {
		w.Push(models.ChartPoint{Timestamp: float64(i), Current: float64(i * 10)})
	}

	if w.Len() != ChartWindowSize {
		t.Fatalf("Expected length %d after overflow, got %d", ChartWindowSize, w.Len())
	}

	// Remaining contents must be samples 2..31 in arrival order
	points := w.Points()
	for i, p := range points {
		expected := float64(i + 2)
		if p.Timestamp != expected {
			t.Errorf("Point %d: expected timestamp %v, got %v", i, expected, p.Timestamp)
		}
		if p.Current != expected*10 {
			t.Errorf("Point %d: expected current %v, got %v", i, expected*10, p.Current)
		}
	}
}

func TestChartWindow_NeverDeduplicatesByTimestamp(t *testing.T) {
	w := NewChartWindow(5)

	w.Push(models.ChartPoint{Timestamp: 1, Current: 10})
	w.Push(models.ChartPoint{Timestamp: 1, Current: 20})
	w.Push(models.ChartPoint{Timestamp: 1, Current: 30})

	points := w.Points()
	if len(points) != 3 {
		t.Fatalf("Expected 3 points with identical timestamps, got %d", len(points))
	}
	if points[0].Current != 10 || points[1].Current != 20 || points[2].Current != 30 {
		t.Errorf("Arrival order not preserved: %+v", points)
	}
}

func TestChartWindow_PointsReturnsCopy(t *testing.T) {
	w := NewChartWindow(5)
	w.Push(models.ChartPoint{Timestamp: 1, Current: 10})

	points := w.Points()
	points[0].Current = 999

	if w.Points()[0].Current != 10 {
		t.Error("Mutating the returned slice must not affect the window")
	}
}
