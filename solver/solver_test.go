package solver

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"

	"github.com/greedsolver/greed/cache"
	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func solve(t *testing.T, max, sides int, mode SearchMode) (*Solver, *policy.Table) {
	t.Helper()
	is := is.New(t)
	s, err := New(game.Ruleset{Max: max, Sides: sides})
	is.NoErr(err)
	s.SetSearch(mode)
	s.SetThreads(4)
	tbl, err := s.Solve(context.Background())
	is.NoErr(err)
	return s, tbl
}

func TestInvalidRuleset(t *testing.T) {
	is := is.New(t)
	for _, r := range []game.Ruleset{{Max: 0, Sides: 6}, {Max: 10, Sides: 0}, {Max: -1, Sides: -1}} {
		_, err := New(r)
		is.True(errors.Is(err, game.ErrInvalidRuleset))
	}
}

func TestLattice(t *testing.T) {
	is := is.New(t)
	l := NewLattice(5)
	levels := l.Levels()
	is.Equal(len(levels), 11)
	is.Equal(levels[0], 10)
	is.Equal(levels[10], 0)

	seen := map[Pair]bool{}
	for _, sum := range levels {
		for _, p := range l.Level(sum) {
			is.Equal(p.Active+p.Queued, sum)
			is.True(p.Active >= 0 && p.Active <= 5)
			is.True(p.Queued >= 0 && p.Queued <= 5)
			is.True(!seen[p])
			seen[p] = true
		}
	}
	is.Equal(len(seen), 36)
	is.Equal(len(l.All()), 36)
	is.Equal(l.Level(10), []Pair{{Active: 5, Queued: 5}})
	is.Equal(len(l.Level(11)), 0)
}

func TestParseSearchMode(t *testing.T) {
	is := is.New(t)
	for _, m := range []SearchMode{SearchExhaustive, SearchBounded, SearchPruned} {
		got, err := ParseSearchMode(m.String())
		is.NoErr(err)
		is.Equal(got, m)
	}
	_, err := ParseSearchMode("greedy")
	is.True(err != nil)
}

func TestTerminalFastPaths(t *testing.T) {
	is := is.New(t)
	s, err := New(game.Ruleset{Max: 100, Sides: 6})
	is.NoErr(err)

	// Ahead on the last turn: stand.
	e, err := s.SolveTerminal(context.Background(), 50, 49)
	is.NoErr(err)
	is.Equal(e, policy.Entry{N: 0, Value: 1})

	// 3 dice land in [3, 18]; 3 is enough to pass 2 without reaching 100.
	e, err = s.SolveTerminal(context.Background(), 0, 2)
	is.NoErr(err)
	is.Equal(e, policy.Entry{N: 3, Value: 1})

	_, err = s.SolveTerminal(context.Background(), 101, 0)
	is.True(errors.Is(err, game.ErrInvalidState))
}

func TestTerminalMaxMax(t *testing.T) {
	is := is.New(t)
	for _, sides := range []int{2, 3, 6, 20} {
		for _, mode := range []SearchMode{SearchExhaustive, SearchBounded, SearchPruned} {
			s, err := New(game.Ruleset{Max: 12, Sides: sides})
			is.NoErr(err)
			s.SetSearch(mode)
			e, err := s.SolveTerminal(context.Background(), 12, 12)
			is.NoErr(err)
			is.Equal(e, policy.Entry{N: 0, Value: 0.5})
		}
	}
}

func TestEndToEndSmall(t *testing.T) {
	is := is.New(t)
	for _, mode := range []SearchMode{SearchExhaustive, SearchBounded, SearchPruned} {
		_, tbl := solve(t, 10, 3, mode)
		e, err := tbl.Lookup(10, 10, false)
		is.NoErr(err)
		is.Equal(e.N, 0)
		is.Equal(e.Value, 0.5)

		tbl.Each(func(s game.State, e policy.Entry) {
			if s.Final && s.Active > s.Queued {
				is.Equal(e, policy.Entry{N: 0, Value: 1})
			}
		})
	}
}

// bruteValue solves a state by plain recursion over every dice count up to
// M and every ordered roll of the dice, with no bounds and no early stop.
type bruteSolver struct {
	rules game.Ruleset
	memo  map[game.State]policy.Entry
}

func (b *bruteSolver) rolls(n int) []float64 {
	p := make([]float64, n*b.rules.Sides+1)
	total := math.Pow(float64(b.rules.Sides), float64(n))
	var rec func(k, sum int)
	rec = func(k, sum int) {
		if k == n {
			p[sum] += 1 / total
			return
		}
		for f := 1; f <= b.rules.Sides; f++ {
			rec(k+1, sum+f)
		}
	}
	rec(0, 0)
	return p
}

func (b *bruteSolver) solve(s game.State) policy.Entry {
	if e, ok := b.memo[s]; ok {
		return e
	}
	var best policy.Entry
	for n := 0; n <= b.rules.Max; n++ {
		var v float64
		for sum, p := range b.rolls(n) {
			if p == 0 {
				continue
			}
			next, verdict := b.rules.Step(s, n, sum)
			switch {
			case verdict != game.Undecided:
				// next is seen from the opponent.
				v += p * verdict.Outcome(false)
			default:
				v += p * (1 - b.solve(next).Value)
			}
		}
		if n == 0 || v > best.Value {
			best = policy.Entry{N: n, Value: v}
		}
	}
	b.memo[s] = best
	return best
}

func TestMatchesBruteForce(t *testing.T) {
	is := is.New(t)
	rules := game.Ruleset{Max: 6, Sides: 2}
	_, tbl := solve(t, rules.Max, rules.Sides, SearchExhaustive)
	b := &bruteSolver{rules: rules, memo: map[game.State]policy.Entry{}}
	tbl.Each(func(s game.State, e policy.Entry) {
		want := b.solve(s)
		if e.N != want.N || math.Abs(e.Value-want.Value) > 1e-12 {
			t.Errorf("%v: got %+v, brute force %+v", s, e, want)
		}
	})
	is.Equal(len(b.memo), tbl.Len())
}

func TestVerify(t *testing.T) {
	is := is.New(t)
	for _, mode := range []SearchMode{SearchExhaustive, SearchBounded, SearchPruned} {
		s, tbl := solve(t, 30, 6, mode)
		pmfs, err := s.PMFs(context.Background())
		is.NoErr(err)
		is.NoErr(Verify(tbl, pmfs))

		devs, err := Audit(tbl, pmfs)
		is.NoErr(err)
		if mode == SearchExhaustive {
			is.Equal(len(devs), 0)
		}
		t.Logf("%v: %d states beaten by a wider search", mode, len(devs))
	}
}

func TestVerifyCatchesTampering(t *testing.T) {
	is := is.New(t)
	s, tbl := solve(t, 8, 3, SearchExhaustive)
	pmfs, err := s.PMFs(context.Background())
	is.NoErr(err)

	b, err := policy.NewBuilder(tbl.Ruleset())
	is.NoErr(err)
	tbl.Each(func(st game.State, e policy.Entry) {
		b.Set(st, e)
	})
	// Claim a roll of 1 die from (0, 0) is worth what the best action is,
	// which only holds if 1 die is the best action.
	best := tbl.At(0, 0, false)
	b.Set(game.NewState(0, 0, false), policy.Entry{N: best.N + 1, Value: best.Value})
	err = Verify(b.Build(), pmfs)
	is.True(errors.Is(err, ErrInconsistent))
}

// Standing at M leaves the opponent one roll to land on M exactly; sitting
// at 0 against M gives the mover two rolls to get there. The two values do
// not add up to 1.
func TestPairwiseComplementDoesNotHold(t *testing.T) {
	is := is.New(t)
	_, tbl := solve(t, 6, 2, SearchExhaustive)
	ahead := tbl.At(6, 0, false)
	behind := tbl.At(0, 6, false)
	is.Equal(ahead.N, 0)
	is.Equal(ahead.Value, 13.0/16)
	is.True(ahead.Value+behind.Value > 1+1e-6)
}

func TestSolveCancelled(t *testing.T) {
	is := is.New(t)
	s, err := New(game.Ruleset{Max: 50, Sides: 6})
	is.NoErr(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tbl, err := s.Solve(ctx)
	is.True(errors.Is(err, context.Canceled))
	is.True(tbl == nil)
}

func TestMemoryBudget(t *testing.T) {
	if memory.TotalMemory() == 0 {
		t.Skip("total memory unknown on this platform")
	}
	is := is.New(t)
	s, err := New(game.Ruleset{Max: 10, Sides: 6})
	is.NoErr(err)
	s.SetMemoryFraction(1e-15)
	_, err = s.Solve(context.Background())
	is.True(errors.Is(err, ErrTooLarge))
}

func TestEvaluationsCounted(t *testing.T) {
	is := is.New(t)
	ex, _ := solve(t, 20, 4, SearchExhaustive)
	pr, _ := solve(t, 20, 4, SearchPruned)
	is.True(ex.Evaluations() > 0)
	is.True(pr.Evaluations() <= ex.Evaluations())
}

func TestLoadTableCaches(t *testing.T) {
	is := is.New(t)
	cache.CreateGlobalObjectCache()
	cfg := config.DefaultConfig()
	_, err := cfg.Load([]string{"--search", "pruned", "--threads", "2"})
	is.NoErr(err)
	rules := game.Ruleset{Max: 15, Sides: 6}
	a, err := LoadTable(context.Background(), cfg, rules)
	is.NoErr(err)
	b, err := LoadTable(context.Background(), cfg, rules)
	is.NoErr(err)
	is.True(a == b)
	is.Equal(a.Ruleset(), rules)
}
