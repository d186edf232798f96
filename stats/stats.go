// Package stats accumulates results of simulated games.
package stats

import (
	"fmt"
	"math"
)

const Epsilon = 1e-6

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance (Welford's method).
type Statistic struct {
	n    int
	last float64
	mean float64
	m2   float64
}

func (s *Statistic) Push(val float64) {
	s.n++
	s.last = val
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
}

// Merge folds another statistic into s, as if every value pushed to o had
// been pushed to s.
func (s *Statistic) Merge(o *Statistic) {
	if o.n == 0 {
		return
	}
	if s.n == 0 {
		*s = *o
		return
	}
	n := s.n + o.n
	delta := o.mean - s.mean
	s.mean += delta * float64(o.n) / float64(n)
	s.m2 += o.m2 + delta*delta*float64(s.n)*float64(o.n)/float64(n)
	s.n = n
	s.last = o.last
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Iterations() int {
	return s.n
}

// WinRate tracks game outcomes for one player: 1 a win, 0.5 a draw, 0 a
// loss. Its mean estimates the value of the starting state for that player.
type WinRate struct {
	Statistic
	Wins, Draws, Losses int
}

func (w *WinRate) Push(outcome float64) {
	switch outcome {
	case 1:
		w.Wins++
	case 0.5:
		w.Draws++
	default:
		w.Losses++
	}
	w.Statistic.Push(outcome)
}

func (w *WinRate) Merge(o *WinRate) {
	w.Wins += o.Wins
	w.Draws += o.Draws
	w.Losses += o.Losses
	w.Statistic.Merge(&o.Statistic)
}

// Interval returns the two-sided confidence interval of the mean at the
// given percent confidence.
func (w *WinRate) Interval(confidence float64) (lo, hi float64) {
	half := ZVal(confidence) * w.StandardError()
	return w.Mean() - half, w.Mean() + half
}

// Consistent reports whether expected lies within the confidence interval.
func (w *WinRate) Consistent(expected, confidence float64) bool {
	lo, hi := w.Interval(confidence)
	return expected >= lo && expected <= hi
}

func (w *WinRate) String() string {
	lo, hi := w.Interval(99)
	return fmt.Sprintf("%d-%d-%d, %.4f (99%% CI %.4f to %.4f)", w.Wins, w.Draws, w.Losses, w.Mean(), lo, hi)
}
