package orchestration

import (
	"testing"

	"github.com/agbru/picalc/internal/progress"
)

func TestNewProgressAggregator_Positive(t *testing.T) {
	agg := NewProgressAggregator(3)
	if agg == nil {
		t.Fatal("expected non-nil aggregator for expected=3")
	}
	if agg.Expected() != 3 {
		t.Errorf("expected Expected()=3, got %d", agg.Expected())
	}
	if agg.Received() != 0 {
		t.Errorf("expected Received()=0, got %d", agg.Received())
	}
}

func TestNewProgressAggregator_Zero(t *testing.T) {
	if agg := NewProgressAggregator(0); agg != nil {
		t.Error("expected nil aggregator for expected=0")
	}
}

func TestNewProgressAggregator_Negative(t *testing.T) {
	if agg := NewProgressAggregator(-1); agg != nil {
		t.Error("expected nil aggregator for expected=-1")
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	agg := NewProgressAggregator(4)

	ap := agg.Update(progress.ProgressUpdate{Received: 1, Expected: 4})
	if ap.Received != 1 || ap.Expected != 4 {
		t.Errorf("unexpected aggregate: %+v", ap)
	}
	if ap.Fraction != 0.25 {
		t.Errorf("expected Fraction=0.25, got %f", ap.Fraction)
	}

	ap = agg.Update(progress.ProgressUpdate{Received: 2, Expected: 4})
	if ap.Fraction != 0.5 {
		t.Errorf("expected Fraction=0.5, got %f", ap.Fraction)
	}
}

func TestProgressAggregator_IgnoresStaleUpdate(t *testing.T) {
	agg := NewProgressAggregator(4)
	agg.Update(progress.ProgressUpdate{Received: 3, Expected: 4})
	ap := agg.Update(progress.ProgressUpdate{Received: 2, Expected: 4})
	if ap.Received != 3 {
		t.Errorf("stale update applied: Received=%d, want 3", ap.Received)
	}
}

func TestProgressAggregator_Fraction(t *testing.T) {
	agg := NewProgressAggregator(2)

	if f := agg.Fraction(); f != 0.0 {
		t.Errorf("expected initial fraction=0.0, got %f", f)
	}

	agg.Update(progress.ProgressUpdate{Received: 2, Expected: 2})
	if f := agg.Fraction(); f != 1.0 {
		t.Errorf("expected fraction=1.0 after completion, got %f", f)
	}
	if eta := agg.ETA(); eta != 0 {
		t.Errorf("expected ETA=0 after completion, got %v", eta)
	}
}

func TestProgressAggregator_ETA(t *testing.T) {
	agg := NewProgressAggregator(1)

	// Initially ETA should be 0 (not enough data)
	if eta := agg.ETA(); eta != 0 {
		t.Errorf("expected initial ETA=0, got %v", eta)
	}
	if agg.Elapsed() < 0 {
		t.Error("Elapsed should not be negative")
	}
}

func TestDrainChannel(t *testing.T) {
	ch := make(chan progress.ProgressUpdate, 5)
	ch <- progress.ProgressUpdate{Received: 1, Expected: 3}
	ch <- progress.ProgressUpdate{Received: 2, Expected: 3}
	ch <- progress.ProgressUpdate{Received: 3, Expected: 3}
	close(ch)

	DrainChannel(ch)
	// If we reach here without deadlock, the test passes
}

func TestDrainChannel_Empty(t *testing.T) {
	ch := make(chan progress.ProgressUpdate)
	close(ch)

	DrainChannel(ch)
	// If we reach here without deadlock, the test passes
}
