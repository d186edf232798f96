package solver

import (
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// solveNormal finds the best action for a normal state. Every state with a
// larger score sum, and every terminal state, must already be in e.g.
func (e evaluator) solveNormal(active, queued int, mode SearchMode) (policy.Entry, int) {
	return e.search(game.NewState(active, queued, false), mode)
}
