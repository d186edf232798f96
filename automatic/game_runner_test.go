package automatic

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
	"github.com/greedsolver/greed/solver"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

// scriptedRoller returns the queued sums in order.
type scriptedRoller struct {
	sums []int
}

func (r *scriptedRoller) Roll(n, sides int) int {
	if n == 0 {
		return 0
	}
	s := r.sums[0]
	r.sums = r.sums[1:]
	return s
}

func stander(name string) Player {
	return PlayerFunc{PlayerName: name, Fn: func(context.Context, game.State) (int, error) {
		return 0, nil
	}}
}

func solvedTable(t *testing.T, max, sides int) *policy.Table {
	t.Helper()
	is := is.New(t)
	s, err := solver.New(game.Ruleset{Max: max, Sides: sides})
	is.NoErr(err)
	tbl, err := s.Solve(context.Background())
	is.NoErr(err)
	return tbl
}

func TestNarratedGame(t *testing.T) {
	is := is.New(t)
	rules := game.Ruleset{Max: 10, Sides: 6}
	r := NewGameRunner(rules,
		NewFixedDicePlayer("Alice", 2, 8),
		NewFixedDicePlayer("Blair", 1, 5),
		&scriptedRoller{sums: []int{7, 6, 2}})
	var out bytes.Buffer
	r.SetOutput(&out)
	r.SetRecording(true)
	r.Banner()

	res, err := r.PlayGame(context.Background(), "g1")
	is.NoErr(err)
	is.Equal(res, Result{Scores: [2]int{9, 6}, Winner: 0, Turns: 5})
	is.Equal(res.Outcome(0), 1.0)
	is.Equal(res.Outcome(1), 0.0)

	text := out.String()
	is.True(strings.Contains(text, "max score: 10, sides: 6"))
	is.True(strings.Contains(text, "round 0: Alice: 0, Blair: 0, last: false"))
	is.True(strings.Contains(text, "Alice rolls 2 dice: 7"))
	is.True(strings.Contains(text, "round 3: Blair: 6, Alice: 9, last: false"))
	is.True(strings.Contains(text, "Blair stands on 6"))
	is.True(strings.Contains(text, "round 4: Alice: 9, Blair: 6, last: true"))
	is.True(strings.Contains(text, "Alice: 9, Blair: 6\nAlice wins!"))

	rec := r.Record()
	is.Equal(len(rec.Turns), 5)
	is.Equal(rec.Turns[2], TurnRecord{Player: "Alice", State: game.NewState(7, 6, false), Dice: 2, Sum: 2})
	is.Equal(rec.Result, res)
}

func TestBust(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(game.Ruleset{Max: 10, Sides: 6},
		NewFixedDicePlayer("Alice", 3, 100), stander("Blair"),
		&scriptedRoller{sums: []int{14}})
	res, err := r.PlayGame(context.Background(), "bust")
	is.NoErr(err)
	is.Equal(res, Result{Scores: [2]int{14, 0}, Winner: 1, Turns: 1, Bust: true})
}

func TestTie(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(game.Ruleset{Max: 10, Sides: 6}, stander("Alice"), stander("Blair"), &scriptedRoller{})
	var out bytes.Buffer
	r.SetOutput(&out)
	res, err := r.PlayGame(context.Background(), "tie")
	is.NoErr(err)
	is.Equal(res.Winner, -1)
	is.Equal(res.Outcome(0), 0.5)
	is.True(strings.Contains(out.String(), "Alice and Blair tie!"))
}

func TestOptimalPlayersFinish(t *testing.T) {
	is := is.New(t)
	tbl := solvedTable(t, 10, 3)
	r := NewGameRunner(tbl.Ruleset(), NewOptimalPlayer("p1", tbl), NewOptimalPlayer("p2", tbl),
		NewSeededRoller([32]byte{1, 2, 3}))
	for range 50 {
		res, err := r.PlayGame(context.Background(), "opt")
		is.NoErr(err)
		is.True(res.Turns >= 2 || res.Bust)
		is.True(res.Winner >= -1 && res.Winner <= 1)
	}
}

func TestSeededRollerRepeats(t *testing.T) {
	is := is.New(t)
	seed := [32]byte{9}
	a, b := NewSeededRoller(seed), NewSeededRoller(seed)
	for n := range 20 {
		sa, sb := a.Roll(n, 6), b.Roll(n, 6)
		is.Equal(sa, sb)
		is.True(sa >= n && sa <= 6*n)
	}
}

func TestNewPlayer(t *testing.T) {
	is := is.New(t)
	tbl := solvedTable(t, 6, 2)
	p, err := NewPlayer("policy", "", tbl)
	is.NoErr(err)
	is.Equal(p.Name(), "policy")
	p, err = NewPlayer("threshold:2:20", "Tess", nil)
	is.NoErr(err)
	is.Equal(p.Name(), "Tess")
	n, err := p.Choose(context.Background(), game.NewState(25, 0, false))
	is.NoErr(err)
	is.Equal(n, 0)
	p, err = NewPlayer("fixed:4", "", nil)
	is.NoErr(err)
	n, err = p.Choose(context.Background(), game.NewState(90, 0, false))
	is.NoErr(err)
	is.Equal(n, 4)

	for _, bad := range []string{"policy", "fixed", "fixed:0", "fixed:x", "threshold:2", "human"} {
		_, err := NewPlayer(bad, "", nil)
		is.True(err != nil)
	}
}
