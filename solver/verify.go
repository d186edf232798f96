package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/greedsolver/greed/dice"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// VerifyTolerance bounds the difference between a stored value and the
// re-evaluated value of its action.
const VerifyTolerance = 1e-9

var ErrInconsistent = errors.New("policy table is inconsistent")

// Verify checks a solved table against the rules. Every value must be a
// finite probability, every action must be playable, and every stored value
// must equal the value of its stored action computed from the stored values
// of the successor states: what the mover expects plus what the opponent
// expects from the resulting position adds up to 1.
func Verify(t *policy.Table, pmfs []dice.PMF) error {
	rules := t.Ruleset()
	if len(pmfs) <= rules.Max {
		return fmt.Errorf("need pmfs for up to %d dice, got %d", rules.Max, len(pmfs))
	}
	e := evaluator{rules: rules, pmfs: pmfs, g: t}
	var err error
	t.Each(func(s game.State, entry policy.Entry) {
		if err != nil {
			return
		}
		if verr := checkValue(s, entry); verr != nil {
			err = verr
			return
		}
		if entry.N < 0 || entry.N > rules.MaxSafeDice(s.Active) {
			err = fmt.Errorf("%w: %v rolls %d dice", ErrInconsistent, s, entry.N)
			return
		}
		if v := e.value(s, entry.N); math.Abs(v-entry.Value) > VerifyTolerance {
			err = fmt.Errorf("%w: %v stores %v for %d dice, re-evaluated %v",
				ErrInconsistent, s, entry.Value, entry.N, v)
		}
	})
	return err
}

// Deviation is a state where a different action beats the stored one.
type Deviation struct {
	State  game.State
	Stored policy.Entry
	Better policy.Entry
}

func (d Deviation) String() string {
	return fmt.Sprintf("%v: stored %d dice (%.9f), %d dice gives %.9f",
		d.State, d.Stored.N, d.Stored.Value, d.Better.N, d.Better.Value)
}

// Audit re-runs an exhaustive search in every state against the stored
// successor values and reports where the stored action is not the best. A
// table solved with SearchPruned that audits clean did not lose anything to
// the early stop.
func Audit(t *policy.Table, pmfs []dice.PMF) ([]Deviation, error) {
	rules := t.Ruleset()
	if len(pmfs) <= rules.Max {
		return nil, fmt.Errorf("need pmfs for up to %d dice, got %d", rules.Max, len(pmfs))
	}
	e := evaluator{rules: rules, pmfs: pmfs, g: t}
	var out []Deviation
	t.Each(func(s game.State, entry policy.Entry) {
		best, _ := e.search(s, SearchExhaustive)
		if best.Value > entry.Value+VerifyTolerance {
			out = append(out, Deviation{State: s, Stored: entry, Better: best})
		}
	})
	return out, nil
}
