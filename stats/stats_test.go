package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		values []float64
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]float64{3, 5, 2, 8, 1, 6}, 25.0 / 6, 2.6394443859772},
		{[]float64{1, 0, 1, 1, 0.5, 0, 1, 0}, 0.5625, 0.4955156044},
		{[]float64{1}, 1, 0},
		{[]float64{}, 0, 0},
		{[]float64{0.5, 0.5}, 0.5, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, v := range c.values {
			s.Push(v)
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
	}
}

func TestMerge(t *testing.T) {
	is := is.New(t)
	values := []float64{4, 8, 15, 16, 23, 42, 7, 1}
	var all, left, right Statistic
	for i, v := range values {
		all.Push(v)
		if i < 3 {
			left.Push(v)
		} else {
			right.Push(v)
		}
	}
	left.Merge(&right)
	is.Equal(left.Iterations(), all.Iterations())
	is.True(FuzzyEqual(left.Mean(), all.Mean()))
	is.True(FuzzyEqual(left.Variance(), all.Variance()))

	var empty Statistic
	empty.Merge(&all)
	is.True(FuzzyEqual(empty.Mean(), all.Mean()))
}

func TestWinRate(t *testing.T) {
	is := is.New(t)
	var w WinRate
	for range 60 {
		w.Push(1)
	}
	for range 30 {
		w.Push(0)
	}
	for range 10 {
		w.Push(0.5)
	}
	is.Equal(w.Wins, 60)
	is.Equal(w.Losses, 30)
	is.Equal(w.Draws, 10)
	is.True(FuzzyEqual(w.Mean(), 0.65))

	lo, hi := w.Interval(95)
	is.True(lo < 0.65 && hi > 0.65)
	is.True(w.Consistent(0.6, 95))
	is.True(!w.Consistent(0.3, 95))

	var other WinRate
	other.Push(1)
	w.Merge(&other)
	is.Equal(w.Wins, 61)
	is.Equal(w.Iterations(), 101)
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.959963984540054))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035489))
}
