// Package solver computes the optimal Greed policy by backward induction.
//
// Terminal states depend only on the dice, so they are solved first and in
// parallel. Normal states are then swept one score-sum level at a time,
// highest first; the states of a level are solved in parallel and the level
// is committed before the next one starts.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/greedsolver/greed/dice"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

// DefaultMemoryFraction is the share of system memory a solve may use.
const DefaultMemoryFraction = 0.5

// valueTolerance is how far a computed value may stray outside [0, 1]
// through rounding.
const valueTolerance = 1e-9

var ErrTooLarge = errors.New("ruleset too large for available memory")

type Solver struct {
	rules          game.Ruleset
	search         SearchMode
	threads        int
	memoryFraction float64

	cache *dice.Cache
	pmfs  []dice.PMF

	evaluations atomic.Uint64
}

// New returns a solver for the ruleset. It fails with game.ErrInvalidRuleset
// before doing any work.
func New(rules game.Ruleset) (*Solver, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	cache, err := dice.New(rules.Sides)
	if err != nil {
		return nil, err
	}
	return &Solver{
		rules:          rules,
		threads:        int(math.Max(1, float64(runtime.NumCPU()-1))),
		memoryFraction: DefaultMemoryFraction,
		cache:          cache,
	}, nil
}

func (s *Solver) Ruleset() game.Ruleset {
	return s.rules
}

func (s *Solver) SetSearch(m SearchMode) {
	s.search = m
}

func (s *Solver) Search() SearchMode {
	return s.search
}

func (s *Solver) SetThreads(t int) {
	s.threads = max(t, 1)
}

func (s *Solver) SetMemoryFraction(f float64) {
	s.memoryFraction = f
}

// SetPMFCache shares a pmf cache between solvers of rulesets with the same
// number of sides.
func (s *Solver) SetPMFCache(c *dice.Cache) error {
	if c.Sides() != s.rules.Sides {
		return fmt.Errorf("pmf cache is for d%d, ruleset needs d%d", c.Sides(), s.rules.Sides)
	}
	s.cache = c
	s.pmfs = nil
	return nil
}

// Evaluations is the number of action values computed by the last solve.
func (s *Solver) Evaluations() uint64 {
	return s.evaluations.Load()
}

// EstimateBytes is roughly how much memory the pmfs and the table need.
func EstimateBytes(rules game.Ruleset) uint64 {
	m := uint64(rules.Max + 1)
	table := 2 * m * m * 16
	// pmf(n) has n*S+1 entries for n in [0, M].
	pmfs := (m*(m-1)/2*uint64(rules.Sides) + m) * 8
	return table + pmfs
}

func (s *Solver) checkMemory() error {
	total := memory.TotalMemory()
	if total == 0 || s.memoryFraction <= 0 {
		return nil
	}
	need := EstimateBytes(s.rules)
	budget := uint64(float64(total) * s.memoryFraction)
	if need > budget {
		return fmt.Errorf("%w: %v needs about %d bytes, budget is %d", ErrTooLarge, s.rules, need, budget)
	}
	return nil
}

// Prepare computes the pmf of every dice count up to M. Solve calls it when
// needed.
func (s *Solver) Prepare(ctx context.Context) error {
	if s.pmfs != nil {
		return nil
	}
	pmfs, err := s.cache.Precompute(ctx, s.rules.Max, s.threads)
	if err != nil {
		return fmt.Errorf("precomputing pmfs: %w", err)
	}
	s.pmfs = pmfs
	return nil
}

// PMFs returns the pmfs used by the solver, indexed by dice count.
func (s *Solver) PMFs(ctx context.Context) ([]dice.PMF, error) {
	if err := s.Prepare(ctx); err != nil {
		return nil, err
	}
	return s.pmfs, nil
}

// SolveTerminal solves a single last-turn state without building a table.
func (s *Solver) SolveTerminal(ctx context.Context, active, queued int) (policy.Entry, error) {
	if err := s.rules.CheckState(game.NewState(active, queued, true)); err != nil {
		return policy.Entry{}, err
	}
	if err := s.Prepare(ctx); err != nil {
		return policy.Entry{}, err
	}
	e := evaluator{rules: s.rules, pmfs: s.pmfs}
	entry, _ := e.solveTerminal(active, queued, s.search)
	return entry, nil
}

// Solve builds the full policy table. Any error, including cancellation of
// ctx, aborts the solve and no table is returned.
func (s *Solver) Solve(ctx context.Context) (*policy.Table, error) {
	logger := zerolog.Ctx(ctx)
	if err := s.checkMemory(); err != nil {
		return nil, err
	}
	start := time.Now()
	s.evaluations.Store(0)
	if err := s.Prepare(ctx); err != nil {
		return nil, err
	}
	b, err := policy.NewBuilder(s.rules)
	if err != nil {
		return nil, err
	}
	e := evaluator{rules: s.rules, pmfs: s.pmfs, g: b}
	lattice := NewLattice(s.rules.Max)

	logger.Debug().Str("ruleset", s.rules.String()).Str("search", s.search.String()).
		Int("threads", s.threads).Msg("solve-terminal")
	err = s.parallel(ctx, lattice.All(), func(p Pair) (policy.Entry, game.State, int) {
		entry, evals := e.solveTerminal(p.Active, p.Queued, s.search)
		return entry, game.NewState(p.Active, p.Queued, true), evals
	}, b)
	if err != nil {
		return nil, err
	}

	for _, sum := range lattice.Levels() {
		err = s.parallel(ctx, lattice.Level(sum), func(p Pair) (policy.Entry, game.State, int) {
			entry, evals := e.solveNormal(p.Active, p.Queued, s.search)
			return entry, game.NewState(p.Active, p.Queued, false), evals
		}, b)
		if err != nil {
			return nil, err
		}
		if sum%100 == 0 {
			logger.Debug().Int("level", sum).Uint64("evaluations", s.evaluations.Load()).Msg("solve-level-done")
		}
	}
	t := b.Build()
	logger.Info().Str("ruleset", s.rules.String()).Uint64("evaluations", s.evaluations.Load()).
		Dur("elapsed", time.Since(start)).Msgf("solved %d states", t.Len())
	return t, nil
}

// parallel solves pairs in chunks, one goroutine per chunk, and returns once
// every entry is committed to b.
func (s *Solver) parallel(ctx context.Context, pairs []Pair,
	solve func(Pair) (policy.Entry, game.State, int), b *policy.Builder) error {

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	chunk := max(1, (len(pairs)+s.threads-1)/s.threads)
	for lo := 0; lo < len(pairs); lo += chunk {
		part := pairs[lo:min(lo+chunk, len(pairs))]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var evals int
			for _, p := range part {
				entry, state, n := solve(p)
				if err := checkValue(state, entry); err != nil {
					return err
				}
				b.Set(state, entry)
				evals += n
			}
			s.evaluations.Add(uint64(evals))
			return nil
		})
	}
	return g.Wait()
}

func checkValue(s game.State, e policy.Entry) error {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) ||
		e.Value < -valueTolerance || e.Value > 1+valueTolerance {
		return fmt.Errorf("%w: %v has value %v", dice.ErrNumericalFault, s, e.Value)
	}
	return nil
}
