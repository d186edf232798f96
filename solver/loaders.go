package solver

import (
	"context"
	"fmt"

	"github.com/greedsolver/greed/cache"
	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// NewFromConfig returns a solver for rules with the search mode, threads and
// memory budget taken from cfg.
func NewFromConfig(cfg *config.Config, rules game.Ruleset) (*Solver, error) {
	s, err := New(rules)
	if err != nil {
		return nil, err
	}
	mode, err := ParseSearchMode(cfg.GetString(config.ConfigSearch))
	if err != nil {
		return nil, err
	}
	s.SetSearch(mode)
	if t := cfg.GetInt(config.ConfigThreads); t > 0 {
		s.SetThreads(t)
	}
	frac, err := cfg.MemoryFraction()
	if err != nil {
		return nil, err
	}
	s.SetMemoryFraction(frac)
	return s, nil
}

// LoadTable returns the solved table for rules, solving it on first use and
// keeping it in the global object cache afterwards.
func LoadTable(ctx context.Context, cfg *config.Config, rules game.Ruleset) (*policy.Table, error) {
	obj, err := cache.Load(cfg, rules.Key(), func(cfg *config.Config, key string) (any, error) {
		s, err := NewFromConfig(cfg, rules)
		if err != nil {
			return nil, err
		}
		return s.Solve(ctx)
	})
	if err != nil {
		return nil, err
	}
	t, ok := obj.(*policy.Table)
	if !ok {
		return nil, fmt.Errorf("cache entry %s is a %T, not a policy table", rules.Key(), obj)
	}
	return t, nil
}
