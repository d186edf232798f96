package policy

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/greedsolver/greed/game"
)

func smallTable(t *testing.T) *Table {
	is := is.New(t)
	b, err := NewBuilder(game.Ruleset{Max: 3, Sides: 2})
	is.NoErr(err)
	for a := 0; a <= 3; a++ {
		for q := 0; q <= 3; q++ {
			b.Set(game.NewState(a, q, false), Entry{N: a, Value: float64(q) / 4})
			b.Set(game.NewState(a, q, true), Entry{N: q, Value: float64(a) / 4})
		}
	}
	return b.Build()
}

func TestLookup(t *testing.T) {
	is := is.New(t)
	tbl := smallTable(t)
	is.Equal(tbl.Len(), 32)

	e, err := tbl.Lookup(2, 1, false)
	is.NoErr(err)
	is.Equal(e, Entry{N: 2, Value: 0.25})

	e, err = tbl.Lookup(2, 1, true)
	is.NoErr(err)
	is.Equal(e, Entry{N: 1, Value: 0.5})

	n, err := tbl.BestAction(game.NewState(3, 0, false))
	is.NoErr(err)
	is.Equal(n, 3)
}

func TestLookupOutOfRange(t *testing.T) {
	is := is.New(t)
	tbl := smallTable(t)
	for _, s := range []game.State{
		{Active: 4, Queued: 0},
		{Active: 0, Queued: 4, Final: true},
		{Active: -1, Queued: 2},
	} {
		_, err := tbl.LookupState(s)
		is.True(errors.Is(err, game.ErrInvalidState))
	}
}

func TestMustLookupPanics(t *testing.T) {
	is := is.New(t)
	tbl := smallTable(t)
	defer func() {
		r := recover()
		is.True(r != nil)
		err, ok := r.(error)
		is.True(ok)
		is.True(errors.Is(err, game.ErrInvalidState))
	}()
	tbl.MustLookup(game.NewState(10, 10, false))
}

func TestEachOrder(t *testing.T) {
	is := is.New(t)
	tbl := smallTable(t)
	var states []game.State
	tbl.Each(func(s game.State, _ Entry) {
		states = append(states, s)
	})
	is.Equal(len(states), 32)
	is.Equal(states[0], game.NewState(0, 0, false))
	is.Equal(states[1], game.NewState(0, 1, false))
	is.Equal(states[4], game.NewState(1, 0, false))
	is.Equal(states[15], game.NewState(3, 3, false))
	is.Equal(states[16], game.NewState(0, 0, true))
	is.Equal(states[31], game.NewState(3, 3, true))
}

func TestBuilderSealed(t *testing.T) {
	is := is.New(t)
	b, err := NewBuilder(game.Ruleset{Max: 2, Sides: 6})
	is.NoErr(err)
	b.Build()
	defer func() {
		is.Equal(recover(), ErrSealed)
	}()
	b.Set(game.NewState(0, 0, false), Entry{})
}

func TestBuilderRejectsBadRuleset(t *testing.T) {
	is := is.New(t)
	_, err := NewBuilder(game.Ruleset{Max: 0, Sides: 6})
	is.True(errors.Is(err, game.ErrInvalidRuleset))
}

func TestFingerprintAndDiff(t *testing.T) {
	is := is.New(t)
	a := smallTable(t)
	b := smallTable(t)
	is.Equal(a.Fingerprint(), b.Fingerprint())
	is.Equal(len(a.Diff(b, 0)), 0)

	b.terminal[b.index(1, 2)] = Entry{N: 2, Value: 0.26}
	is.True(a.Fingerprint() != b.Fingerprint())
	is.Equal(a.Diff(b, 0), []game.State{game.NewState(1, 2, true)})
	is.Equal(len(a.Diff(b, 0.05)), 0)
}
