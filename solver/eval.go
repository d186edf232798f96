package solver

import (
	"github.com/greedsolver/greed/dice"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// grid is the part of a table the evaluator reads. Both the builder used
// during a solve and a finished table satisfy it.
type grid interface {
	At(active, queued int, final bool) policy.Entry
}

// evaluator computes the value of a single action given the already solved
// successors in g. pmfs must hold every dice count up to M.
type evaluator struct {
	rules game.Ruleset
	pmfs  []dice.PMF
	g     grid
}

// terminalValue is the probability that rolling n dice on the last turn
// ends strictly above queued without busting, plus half the probability of
// tying.
func (e evaluator) terminalValue(active, queued, n int) float64 {
	pmf := e.pmfs[n]
	need := queued - active
	var v float64
	for t := max(need+1, 0); t <= e.rules.Max-active; t++ {
		v += pmf.Prob(t)
	}
	return v + 0.5*pmf.Prob(need)
}

// normalValue is the value of rolling n dice in a normal state. Standing
// hands the opponent the last turn; rolling hands them a normal state with
// the new score, unless it busts.
func (e evaluator) normalValue(active, queued, n int) float64 {
	if n == 0 {
		return 1 - e.g.At(queued, active, true).Value
	}
	pmf := e.pmfs[n]
	var v float64
	for t := n; t <= min(pmf.MaxTotal(), e.rules.Max-active); t++ {
		v += pmf[t] * (1 - e.g.At(queued, active+t, false).Value)
	}
	return v
}

func (e evaluator) value(s game.State, n int) float64 {
	if s.Final {
		return e.terminalValue(s.Active, s.Queued, n)
	}
	return e.normalValue(s.Active, s.Queued, n)
}

// limit is the largest dice count the search considers for active.
func (e evaluator) limit(active int, mode SearchMode) int {
	if mode == SearchExhaustive {
		return e.rules.MaxSafeDice(active)
	}
	return min(e.rules.MaxUsefulDice(active), e.rules.MaxSafeDice(active))
}

// search scans n = 0, 1, ... and keeps the first n with the highest value.
func (e evaluator) search(s game.State, mode SearchMode) (policy.Entry, int) {
	best := policy.Entry{N: 0, Value: e.value(s, 0)}
	evals := 1
	top := e.limit(s.Active, mode)
	for n := 1; n <= top; n++ {
		v := e.value(s, n)
		evals++
		if v > best.Value {
			best = policy.Entry{N: n, Value: v}
		} else if mode == SearchPruned && v < best.Value {
			break
		}
	}
	return best, evals
}
