// Package remote answers policy lookups for callers outside the process,
// through AWS Lambda or NATS, and invokes the lambda from the shell.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
	"github.com/greedsolver/greed/solver"
)

// Request asks for the best action in one state. A zero ruleset means the
// default one.
type Request struct {
	RequestID    string `json:"request_id,omitempty"`
	Max          int    `json:"max,omitempty"`
	Sides        int    `json:"sides,omitempty"`
	Active       int    `json:"active"`
	Queued       int    `json:"queued"`
	Final        bool   `json:"final"`
	ReplyChannel string `json:"reply_channel,omitempty"`
}

func (r Request) Ruleset() (game.Ruleset, error) {
	rules := game.DefaultRuleset()
	if r.Max != 0 {
		rules.Max = r.Max
	}
	if r.Sides != 0 {
		rules.Sides = r.Sides
	}
	return rules, rules.Validate()
}

func (r Request) State() game.State {
	return game.NewState(r.Active, r.Queued, r.Final)
}

// Response is the table entry for the requested state.
type Response struct {
	RequestID   string       `json:"request_id,omitempty"`
	Ruleset     game.Ruleset `json:"ruleset"`
	State       game.State   `json:"state"`
	N           int          `json:"n"`
	Value       float64      `json:"value"`
	Fingerprint string       `json:"fingerprint"`
}

func (r Response) String() string {
	return fmt.Sprintf("%v %v => (dice: %d, value: %.6f)", r.Ruleset, r.State, r.N, r.Value)
}

// MaxRemoteScore caps the rulesets a remote caller can make us solve.
const MaxRemoteScore = 1000

var ErrRulesetTooLarge = errors.New("ruleset too large for remote lookup")

// Handle answers a request from the solved table for its ruleset, solving
// and caching the table on first use.
func Handle(ctx context.Context, cfg *config.Config, req Request) (Response, error) {
	rules, err := req.Ruleset()
	if err != nil {
		return Response{}, err
	}
	if rules.Max > MaxRemoteScore {
		return Response{}, fmt.Errorf("%w: %v", ErrRulesetTooLarge, rules)
	}
	t, err := solver.LoadTable(ctx, cfg, rules)
	if err != nil {
		return Response{}, err
	}
	return lookup(t, req)
}

func lookup(t *policy.Table, req Request) (Response, error) {
	e, err := t.LookupState(req.State())
	if err != nil {
		return Response{}, err
	}
	return Response{
		RequestID:   req.RequestID,
		Ruleset:     t.Ruleset(),
		State:       req.State(),
		N:           e.N,
		Value:       e.Value,
		Fingerprint: fmt.Sprintf("%016x", t.Fingerprint()),
	}, nil
}
