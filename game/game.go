// Package game holds the rules of Greed: rulesets, states, and the way a
// state advances after a roll.
//
// In Greed two players take turns rolling any number of dice and adding the
// sum to their score. A player whose score passes the maximum busts and
// loses. Rolling zero dice stands, and the opponent then gets one last turn
// before the higher score wins.
package game

import "fmt"

// State is a position seen from the player about to move.
type State struct {
	// Active is the score of the player whose turn it is.
	Active int `json:"active" yaml:"active"`
	// Queued is the score of the player who moves next.
	Queued int `json:"queued" yaml:"queued"`
	// Final is set when the active player is taking the last turn of the game.
	Final bool `json:"final" yaml:"final"`
}

func NewState(active, queued int, final bool) State {
	return State{Active: active, Queued: queued, Final: final}
}

// Sum is the combined score. Every roll strictly increases it.
func (s State) Sum() int {
	return s.Active + s.Queued
}

func (s State) String() string {
	kind := "normal"
	if s.Final {
		kind = "terminal"
	}
	return fmt.Sprintf("(%d, %d, %s)", s.Active, s.Queued, kind)
}

// Verdict is the result of a finished game, from the point of view of the
// state it is attached to.
type Verdict int

const (
	Undecided Verdict = iota
	ActiveWins
	QueuedWins
	Draw
)

func (v Verdict) String() string {
	switch v {
	case ActiveWins:
		return "active-wins"
	case QueuedWins:
		return "queued-wins"
	case Draw:
		return "draw"
	}
	return "undecided"
}

// Step advances s after the active player rolls n dice totalling sum. The
// returned state has the roles swapped, so the player who just rolled is the
// queued player of the new state, and the verdict is expressed for that
// new state.
func (r Ruleset) Step(s State, n, sum int) (State, Verdict) {
	next := State{Active: s.Queued, Queued: s.Active + sum, Final: s.Final || n == 0}
	if r.Busts(next.Queued) {
		return next, ActiveWins
	}
	if !s.Final {
		return next, Undecided
	}
	switch {
	case next.Active > next.Queued:
		return next, ActiveWins
	case next.Active < next.Queued:
		return next, QueuedWins
	}
	return next, Draw
}

// Outcome is the value of a finished game for a player: 1 for a win, 0.5
// for a draw and 0 for a loss.
func (v Verdict) Outcome(forActive bool) float64 {
	switch v {
	case Draw:
		return 0.5
	case ActiveWins:
		if forActive {
			return 1
		}
	case QueuedWins:
		if !forActive {
			return 1
		}
	}
	return 0
}
