// Package policy stores the solved Greed table: the best number of dice to
// roll in every state, and what that choice is worth.
package policy

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash"

	"github.com/greedsolver/greed/game"
)

// Entry is the optimal action for one state and its value for the player
// to move: 1 is a certain win, 0 a certain loss, 0.5 a draw.
type Entry struct {
	N     int     `json:"n" yaml:"n"`
	Value float64 `json:"value" yaml:"value"`
}

// Table holds an entry for every state of a ruleset. A Table is never
// modified once built, so any number of goroutines may read it.
type Table struct {
	rules    game.Ruleset
	normal   []Entry
	terminal []Entry
}

func (t *Table) Ruleset() game.Ruleset {
	return t.rules
}

// Len is the number of states in the table, 2(M+1)^2.
func (t *Table) Len() int {
	return len(t.normal) + len(t.terminal)
}

func (t *Table) index(active, queued int) int {
	return active*(t.rules.Max+1) + queued
}

// At returns the entry without a range check. It panics on states outside
// the table.
func (t *Table) At(active, queued int, final bool) Entry {
	if final {
		return t.terminal[t.index(active, queued)]
	}
	return t.normal[t.index(active, queued)]
}

// Lookup returns the entry for a state, or game.ErrInvalidState if either
// score is outside [0, M].
func (t *Table) Lookup(active, queued int, final bool) (Entry, error) {
	return t.LookupState(game.NewState(active, queued, final))
}

func (t *Table) LookupState(s game.State) (Entry, error) {
	if err := t.rules.CheckState(s); err != nil {
		return Entry{}, err
	}
	return t.At(s.Active, s.Queued, s.Final), nil
}

// MustLookup is Lookup for callers that only ever ask about reachable
// states. A state outside the table is a caller bug.
func (t *Table) MustLookup(s game.State) Entry {
	e, err := t.LookupState(s)
	if err != nil {
		panic(err)
	}
	return e
}

// BestAction is the number of dice to roll in s.
func (t *Table) BestAction(s game.State) (int, error) {
	e, err := t.LookupState(s)
	if err != nil {
		return 0, err
	}
	return e.N, nil
}

// Each calls fn for every state, normal states first, each block ordered by
// active then queued score.
func (t *Table) Each(fn func(game.State, Entry)) {
	for _, final := range []bool{false, true} {
		for a := 0; a <= t.rules.Max; a++ {
			for q := 0; q <= t.rules.Max; q++ {
				fn(game.NewState(a, q, final), t.At(a, q, final))
			}
		}
	}
}

// Fingerprint hashes the ruleset and every entry. Two tables with the same
// fingerprint hold the same policy bit for bit.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(t.rules.Max))
	put(uint64(t.rules.Sides))
	t.Each(func(_ game.State, e Entry) {
		put(uint64(e.N))
		put(math.Float64bits(e.Value))
	})
	return h.Sum64()
}

// Diff returns the states where the two tables disagree on the action or
// differ in value by more than tol.
func (t *Table) Diff(o *Table, tol float64) []game.State {
	if t.rules != o.rules {
		return []game.State{{Active: -1, Queued: -1}}
	}
	var out []game.State
	t.Each(func(s game.State, e Entry) {
		oe := o.At(s.Active, s.Queued, s.Final)
		if e.N != oe.N || math.Abs(e.Value-oe.Value) > tol {
			out = append(out, s)
		}
	})
	return out
}

func (t *Table) String() string {
	return fmt.Sprintf("<policy %v: %d states>", t.rules, t.Len())
}
