package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestRulesetValidate(t *testing.T) {
	is := is.New(t)
	_, err := NewRuleset(100, 6)
	is.NoErr(err)

	for _, r := range []Ruleset{{0, 6}, {-1, 6}, {10, 0}, {10, -3}} {
		_, err := NewRuleset(r.Max, r.Sides)
		is.True(errors.Is(err, ErrInvalidRuleset))
	}
}

func TestMaxUsefulDice(t *testing.T) {
	is := is.New(t)
	r := Ruleset{Max: 10, Sides: 3}
	is.Equal(r.MaxUsefulDice(0), 5)
	is.Equal(r.MaxUsefulDice(10), 0)
	is.Equal(r.MaxUsefulDice(9), 1)

	r = DefaultRuleset()
	// mean of 29 dice is 101.5
	is.Equal(r.MaxUsefulDice(0), 29)
	is.Equal(r.MaxSafeDice(40), 60)
	is.Equal(r.MaxSafeDice(100), 0)
}

func TestCheckState(t *testing.T) {
	is := is.New(t)
	r := Ruleset{Max: 10, Sides: 3}
	is.NoErr(r.CheckState(NewState(10, 10, true)))
	is.True(errors.Is(r.CheckState(NewState(11, 0, false)), ErrInvalidState))
	is.True(errors.Is(r.CheckState(NewState(0, 11, true)), ErrInvalidState))
	is.True(errors.Is(r.CheckState(NewState(-1, 0, true)), ErrInvalidState))
}

func TestStep(t *testing.T) {
	is := is.New(t)
	r := Ruleset{Max: 10, Sides: 3}

	type tc struct {
		name    string
		from    State
		n, sum  int
		to      State
		verdict Verdict
	}
	cases := []tc{
		{"roll", NewState(2, 5, false), 2, 4, NewState(5, 6, false), Undecided},
		{"bust", NewState(8, 5, false), 2, 3, NewState(5, 11, false), ActiveWins},
		{"stand", NewState(7, 5, false), 0, 0, NewState(5, 7, true), Undecided},
		{"final roll wins", NewState(5, 7, true), 1, 3, NewState(7, 8, true), QueuedWins},
		{"final roll ties", NewState(5, 7, true), 1, 2, NewState(7, 7, true), Draw},
		{"final roll short", NewState(5, 7, true), 1, 1, NewState(7, 6, true), ActiveWins},
		{"final stand", NewState(9, 7, true), 0, 0, NewState(7, 9, true), QueuedWins},
		{"final bust", NewState(5, 7, true), 3, 6, NewState(7, 11, true), ActiveWins},
	}
	for _, c := range cases {
		to, v := r.Step(c.from, c.n, c.sum)
		is.Equal(to, c.to)     // next state
		is.Equal(v, c.verdict) // verdict
	}
}

func TestVerdictOutcome(t *testing.T) {
	is := is.New(t)
	is.Equal(ActiveWins.Outcome(true), 1.0)
	is.Equal(ActiveWins.Outcome(false), 0.0)
	is.Equal(QueuedWins.Outcome(false), 1.0)
	is.Equal(Draw.Outcome(true), 0.5)
	is.Equal(Draw.Outcome(false), 0.5)
	is.Equal(Undecided.Outcome(true), 0.0)
}
