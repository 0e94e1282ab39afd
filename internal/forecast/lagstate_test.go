package forecast

import (
	"testing"

	"sales-forecast-lab/internal/domain"
)

func TestLagState_Seeded(t *testing.T) {
	seed := [domain.LagCount]float64{1, 2, 3, 4, 5, 6}
	s := NewLagState(seed)

	if s.Lags() != seed {
		t.Errorf("expected seed lags %v, got %v", seed, s.Lags())
	}
	if s.MovingAverage() != 0 {
		t.Errorf("expected empty moving average 0, got %v", s.MovingAverage())
	}
	if s.WindowLen() != 0 {
		t.Errorf("expected empty window, got %d", s.WindowLen())
	}
}

func TestLagState_AdvanceShifts(t *testing.T) {
	s := NewLagState([domain.LagCount]float64{1, 2, 3, 4, 5, 6})

	s.Advance(10)
	want := [domain.LagCount]float64{10, 1, 2, 3, 4, 5}
	if s.Lags() != want {
		t.Errorf("after one advance: got %v, want %v", s.Lags(), want)
	}

	s.Advance(20)
	want = [domain.LagCount]float64{20, 10, 1, 2, 3, 4}
	if s.Lags() != want {
		t.Errorf("after two advances: got %v, want %v", s.Lags(), want)
	}
}

func TestLagState_MovingAveragePartialThenWindowed(t *testing.T) {
	s := NewLagState([domain.LagCount]float64{})

	preds := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i, p := range preds {
		s.Advance(p)

		n := i + 1
		if n > domain.MovingAverageWindow {
			n = domain.MovingAverageWindow
		}
		sum := 0.0
		for _, v := range preds[i+1-n : i+1] {
			sum += v
		}
		want := sum / float64(n)

		if got := s.MovingAverage(); got != want {
			t.Errorf("after %d predictions: moving average %v, want %v", i+1, got, want)
		}
		if s.WindowLen() != n {
			t.Errorf("after %d predictions: window len %d, want %d", i+1, s.WindowLen(), n)
		}
	}

	hist := s.History()
	if len(hist) != len(preds) {
		t.Fatalf("expected %d history entries, got %d", len(preds), len(hist))
	}
	hist[0] = -1
	if s.History()[0] != 1 {
		t.Error("History must return a copy")
	}
}
