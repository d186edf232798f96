package solver

import (
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// solveTerminal finds the best roll for the last turn of the game. The
// opponent has already stood on queued.
func (e evaluator) solveTerminal(active, queued int, mode SearchMode) (policy.Entry, int) {
	// Already ahead: standing wins outright.
	if active > queued {
		return policy.Entry{N: 0, Value: 1}, 0
	}
	// The fewest dice whose smallest total passes queued, if even their
	// largest total stays within M.
	if n := queued - active + 1; n*e.rules.Sides <= e.rules.Max-active {
		return policy.Entry{N: n, Value: 1}, 0
	}
	return e.search(game.NewState(active, queued, true), mode)
}
