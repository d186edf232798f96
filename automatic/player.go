package automatic

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

const (
	PolicyPlayer    = "policy"
	FixedPlayer     = "fixed"
	ThresholdPlayer = "threshold"
)

// Player picks how many dice to roll.
type Player interface {
	Name() string
	Choose(ctx context.Context, s game.State) (int, error)
}

// PlayerFunc adapts a function, such as a prompt for a human, to Player.
type PlayerFunc struct {
	PlayerName string
	Fn         func(ctx context.Context, s game.State) (int, error)
}

func (p PlayerFunc) Name() string { return p.PlayerName }

func (p PlayerFunc) Choose(ctx context.Context, s game.State) (int, error) {
	return p.Fn(ctx, s)
}

// OptimalPlayer plays the solved policy.
type OptimalPlayer struct {
	name  string
	table *policy.Table
}

func NewOptimalPlayer(name string, t *policy.Table) *OptimalPlayer {
	return &OptimalPlayer{name: name, table: t}
}

func (p *OptimalPlayer) Name() string { return p.name }

func (p *OptimalPlayer) Choose(_ context.Context, s game.State) (int, error) {
	return p.table.BestAction(s)
}

// FixedDicePlayer rolls the same number of dice while it is below a target
// score, then stands. On the last turn it stands if ahead and rolls
// otherwise.
type FixedDicePlayer struct {
	name   string
	dice   int
	target int
}

func NewFixedDicePlayer(name string, dice, target int) *FixedDicePlayer {
	return &FixedDicePlayer{name: name, dice: dice, target: target}
}

func (p *FixedDicePlayer) Name() string { return p.name }

func (p *FixedDicePlayer) Choose(_ context.Context, s game.State) (int, error) {
	if s.Final {
		if s.Active > s.Queued {
			return 0, nil
		}
		return p.dice, nil
	}
	if s.Active >= p.target {
		return 0, nil
	}
	return p.dice, nil
}

// NewPlayer builds a player from a spec of the form
//
//	policy
//	fixed:<dice>
//	threshold:<dice>:<target>
//
// The name defaults to the spec itself.
func NewPlayer(spec, name string, t *policy.Table) (Player, error) {
	if name == "" {
		name = spec
	}
	fields := strings.Split(spec, ":")
	ints := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("bad player spec %q", spec)
		}
		ints = append(ints, v)
	}
	switch {
	case fields[0] == PolicyPlayer && len(ints) == 0:
		if t == nil {
			return nil, fmt.Errorf("player %q needs a solved table", spec)
		}
		return NewOptimalPlayer(name, t), nil
	case fields[0] == FixedPlayer && len(ints) == 1 && ints[0] > 0:
		return NewFixedDicePlayer(name, ints[0], math.MaxInt), nil
	case fields[0] == ThresholdPlayer && len(ints) == 2 && ints[0] > 0:
		return NewFixedDicePlayer(name, ints[0], ints[1]), nil
	}
	return nil, fmt.Errorf("bad player spec %q", spec)
}
