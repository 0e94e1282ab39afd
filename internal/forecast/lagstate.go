package forecast

import "sales-forecast-lab/internal/domain"

// LagState carries the recursive target history of one run.
// Lags are ordered most-recent first. The moving-average window holds at most
// domain.MovingAverageWindow predictions in a fixed ring.
type LagState struct {
	lags [domain.LagCount]float64

	window [domain.MovingAverageWindow]float64
	head   int // next write position
	size   int

	history []float64
}

// NewLagState seeds the lag slots from the first day's observed values.
// The moving-average window starts empty.
func NewLagState(seed [domain.LagCount]float64) *LagState {
	return &LagState{lags: seed}
}

// Lags returns a copy of the lag slots, [0] = lag1.
func (s *LagState) Lags() [domain.LagCount]float64 {
	return s.lags
}

// MovingAverage returns the mean of the predictions currently in the window, 0 when empty.
func (s *LagState) MovingAverage() float64 {
	if s.size == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < s.size; i++ {
		sum += s.window[i]
	}
	return sum / float64(s.size)
}

// WindowLen returns the number of predictions in the moving-average window.
func (s *LagState) WindowLen() int {
	return s.size
}

// Advance shifts the lags by one day and records the new prediction.
func (s *LagState) Advance(prediction float64) {
	copy(s.lags[1:], s.lags[:domain.LagCount-1])
	s.lags[0] = prediction

	s.window[s.head] = prediction
	s.head = (s.head + 1) % domain.MovingAverageWindow
	if s.size < domain.MovingAverageWindow {
		s.size++
	}

	s.history = append(s.history, prediction)
}

// History returns every prediction recorded so far, oldest first.
func (s *LagState) History() []float64 {
	out := make([]float64, len(s.history))
	copy(out, s.history)
	return out
}
