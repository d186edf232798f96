package policy

import (
	"errors"

	"github.com/greedsolver/greed/game"
)

var ErrSealed = errors.New("policy table already built")

// Builder fills a table cell by cell. Writers to distinct cells may run
// concurrently; readers must only read cells whose writes happened before
// (for example, across an errgroup Wait).
type Builder struct {
	t      *Table
	sealed bool
}

func NewBuilder(rules game.Ruleset) (*Builder, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	size := (rules.Max + 1) * (rules.Max + 1)
	return &Builder{t: &Table{
		rules:    rules,
		normal:   make([]Entry, size),
		terminal: make([]Entry, size),
	}}, nil
}

func (b *Builder) Ruleset() game.Ruleset {
	return b.t.rules
}

func (b *Builder) At(active, queued int, final bool) Entry {
	return b.t.At(active, queued, final)
}

// Set stores the entry for a state. It panics after Build.
func (b *Builder) Set(s game.State, e Entry) {
	if b.sealed {
		panic(ErrSealed)
	}
	idx := b.t.index(s.Active, s.Queued)
	if s.Final {
		b.t.terminal[idx] = e
	} else {
		b.t.normal[idx] = e
	}
}

// Build seals the builder and returns the finished table.
func (b *Builder) Build() *Table {
	b.sealed = true
	return b.t
}
