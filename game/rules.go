package game

import (
	"errors"
	"fmt"
)

const (
	DefaultMax   = 100
	DefaultSides = 6
)

var (
	ErrInvalidRuleset = errors.New("invalid ruleset")
	ErrInvalidState   = errors.New("invalid state")
)

// Ruleset is one variant of Greed: the highest score a player may reach
// without busting, and the number of sides on every die.
type Ruleset struct {
	Max   int `json:"max" yaml:"max"`
	Sides int `json:"sides" yaml:"sides"`
}

// NewRuleset returns a validated ruleset.
func NewRuleset(max, sides int) (Ruleset, error) {
	r := Ruleset{Max: max, Sides: sides}
	if err := r.Validate(); err != nil {
		return Ruleset{}, err
	}
	return r, nil
}

func DefaultRuleset() Ruleset {
	return Ruleset{Max: DefaultMax, Sides: DefaultSides}
}

func (r Ruleset) Validate() error {
	if r.Max <= 0 {
		return fmt.Errorf("%w: max score must be positive, got %d", ErrInvalidRuleset, r.Max)
	}
	if r.Sides <= 0 {
		return fmt.Errorf("%w: dice must have a positive number of sides, got %d", ErrInvalidRuleset, r.Sides)
	}
	return nil
}

func (r Ruleset) String() string {
	return fmt.Sprintf("M=%d,S=%d", r.Max, r.Sides)
}

// Key identifies the ruleset in caches.
func (r Ruleset) Key() string {
	return fmt.Sprintf("greed:%d:%d", r.Max, r.Sides)
}

// Busts reports whether a score is past the maximum.
func (r Ruleset) Busts(score int) bool {
	return score > r.Max
}

// MaxUsefulDice is the dice count at which the mean roll first reaches the
// points the active player has left before busting, ceil(2(M-a)/(S+1)).
func (r Ruleset) MaxUsefulDice(active int) int {
	left := r.Max - active
	if left <= 0 {
		return 0
	}
	return (2*left + r.Sides) / (r.Sides + 1)
}

// MaxSafeDice is the largest dice count that does not bust with certainty.
// Every die shows at least 1, so rolling more than M-a dice always busts.
func (r Ruleset) MaxSafeDice(active int) int {
	return max(r.Max-active, 0)
}

// Contains reports whether both scores of s are in [0, M].
func (r Ruleset) Contains(s State) bool {
	return s.Active >= 0 && s.Queued >= 0 && s.Active <= r.Max && s.Queued <= r.Max
}

// CheckState returns ErrInvalidState for states outside the table.
func (r Ruleset) CheckState(s State) error {
	if !r.Contains(s) {
		return fmt.Errorf("%w: %v outside [0,%d]", ErrInvalidState, s, r.Max)
	}
	return nil
}
