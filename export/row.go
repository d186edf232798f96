package export

import (
	"fmt"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// Row is one state of a table in the flat layout every format shares.
type Row struct {
	Active int     `yaml:"active"`
	Queued int     `yaml:"queued"`
	Last   bool    `yaml:"last"`
	N      int     `yaml:"n"`
	Value  float64 `yaml:"value"`
}

func (r Row) state() game.State {
	return game.NewState(r.Active, r.Queued, r.Last)
}

// Rows flattens a table in policy.Table.Each order.
func Rows(t *policy.Table, c Convention) []Row {
	out := make([]Row, 0, t.Len())
	t.Each(func(s game.State, e policy.Entry) {
		out = append(out, Row{Active: s.Active, Queued: s.Queued, Last: s.Final, N: e.N, Value: c.Encode(e.Value)})
	})
	return out
}

// rowBuilder checks decoded rows as they arrive and assembles the table.
type rowBuilder struct {
	rules game.Ruleset
	b     *policy.Builder
	seen  map[game.State]bool
}

func newRowBuilder(rules game.Ruleset) (*rowBuilder, error) {
	b, err := policy.NewBuilder(rules)
	if err != nil {
		return nil, err
	}
	return &rowBuilder{rules: rules, b: b, seen: map[game.State]bool{}}, nil
}

func (rb *rowBuilder) add(r Row) error {
	s := r.state()
	if err := rb.rules.CheckState(s); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if rb.seen[s] {
		return fmt.Errorf("%w: %v appears twice", ErrMalformed, s)
	}
	if r.N < 0 {
		return fmt.Errorf("%w: %v rolls %d dice", ErrMalformed, s, r.N)
	}
	rb.seen[s] = true
	rb.b.Set(s, policy.Entry{N: r.N, Value: r.Value})
	return nil
}

func (rb *rowBuilder) build() (*policy.Table, error) {
	want := 2 * (rb.rules.Max + 1) * (rb.rules.Max + 1)
	if len(rb.seen) != want {
		return nil, fmt.Errorf("%w: %d states for %v, want %d", ErrMalformed, len(rb.seen), rb.rules, want)
	}
	return rb.b.Build(), nil
}
