package solver

import (
	"github.com/samber/lo"
)

// Pair is an (active, queued) score pair.
type Pair struct {
	Active, Queued int
}

// Lattice enumerates the score pairs of a ruleset. A normal state can only
// move to states with a strictly larger score sum, so visiting the levels in
// the order Levels returns guarantees every successor is solved first.
type Lattice struct {
	max int
}

func NewLattice(max int) Lattice {
	return Lattice{max: max}
}

// Levels returns the score sums from 2M down to 0.
func (l Lattice) Levels() []int {
	return lo.RangeWithSteps(2*l.max, -1, -1)
}

// Level returns the pairs whose scores add up to sum. Pairs within a level
// do not depend on each other.
func (l Lattice) Level(sum int) []Pair {
	if sum < 0 || sum > 2*l.max {
		return nil
	}
	lowest := max(0, sum-l.max)
	highest := min(sum, l.max)
	return lo.Map(lo.RangeFrom(lowest, highest-lowest+1), func(a int, _ int) Pair {
		return Pair{Active: a, Queued: sum - a}
	})
}

// All returns every pair, active-major.
func (l Lattice) All() []Pair {
	out := make([]Pair, 0, (l.max+1)*(l.max+1))
	for a := 0; a <= l.max; a++ {
		for q := 0; q <= l.max; q++ {
			out = append(out, Pair{Active: a, Queued: q})
		}
	}
	return out
}
