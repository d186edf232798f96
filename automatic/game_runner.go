// Package automatic plays games of Greed: one narrated game between any two
// players, or many silent bot games to measure how a strategy does.
package automatic

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/greedsolver/greed/game"
)

// width is the width of the banner.
const width = 41

const banner = `
 ██████╗ ██████╗ ███████╗███████╗██████╗
██╔════╝ ██╔══██╗██╔════╝██╔════╝██╔══██╗
██║  ███╗██████╔╝█████╗  █████╗  ██║  ██║
██║   ██║██╔══██╗██╔══╝  ██╔══╝  ██║  ██║
╚██████╔╝██║  ██║███████╗███████╗██████╔╝
 ╚═════╝ ╚═╝  ╚═╝╚══════╝╚══════╝╚═════╝`

// MaxTurns stops a game that cannot end, such as two players who never
// stand and never roll.
const MaxTurns = 10000

// Result is how a finished game went. Scores and Winner are by seat: seat 0
// moves first.
type Result struct {
	Scores [2]int
	// Winner is the winning seat, or -1 for a tie.
	Winner int
	Turns  int
	Bust   bool
}

// Outcome is the result for a seat: 1 win, 0.5 tie, 0 loss.
func (r Result) Outcome(seat int) float64 {
	switch r.Winner {
	case -1:
		return 0.5
	case seat:
		return 1
	}
	return 0
}

// GameRunner plays one game at a time between two players.
type GameRunner struct {
	rules   game.Ruleset
	players [2]Player
	roller  Roller

	// out receives the narration; nil plays silently.
	out     io.Writer
	logchan chan string
	record  *GameRecord

	gameID string
	state  game.State
	turn   int
	scores [2]int
}

func NewGameRunner(rules game.Ruleset, p1, p2 Player, roller Roller) *GameRunner {
	return &GameRunner{rules: rules, players: [2]Player{p1, p2}, roller: roller}
}

// SetOutput narrates games to w.
func (r *GameRunner) SetOutput(w io.Writer) {
	r.out = w
}

// SetLogChannel sends one CSV line per turn to ch.
func (r *GameRunner) SetLogChannel(ch chan string) {
	r.logchan = ch
}

// SetRecording keeps a full transcript of each game, returned by Record.
func (r *GameRunner) SetRecording(on bool) {
	if on {
		r.record = &GameRecord{}
	} else {
		r.record = nil
	}
}

func (r *GameRunner) Record() *GameRecord {
	return r.record
}

func (r *GameRunner) State() game.State {
	return r.state
}

// seatOnTurn is the seat of the active player.
func (r *GameRunner) seatOnTurn() int {
	return r.turn % 2
}

func (r *GameRunner) printf(format string, args ...any) {
	if r.out != nil {
		fmt.Fprintf(r.out, format, args...)
	}
}

func centered(s string) string {
	return strings.Repeat(" ", max(0, width-len([]rune(s)))/2) + s
}

func (r *GameRunner) Banner() {
	r.printf("%s\n%s\n", banner, centered(fmt.Sprintf("max score: %d, sides: %d", r.rules.Max, r.rules.Sides)))
}

func (r *GameRunner) status() {
	on := r.seatOnTurn()
	r.printf("\nround %d: %s: %d, %s: %d, last: %v\n", r.turn,
		r.players[on].Name(), r.state.Active, r.players[1-on].Name(), r.state.Queued, r.state.Final)
}

func (r *GameRunner) results(res Result) {
	r.printf("\n%s\n%s\n%s\n", strings.Repeat("=", width), centered("final results"), strings.Repeat("=", width))
	r.printf("%s: %d, %s: %d\n", r.players[0].Name(), res.Scores[0], r.players[1].Name(), res.Scores[1])
	if res.Winner < 0 {
		r.printf("%s and %s tie!\n", r.players[0].Name(), r.players[1].Name())
		return
	}
	r.printf("%s wins!\n", r.players[res.Winner].Name())
}

// StartGame resets the runner for a new game.
func (r *GameRunner) StartGame(gameID string) {
	r.gameID = gameID
	r.state = game.NewState(0, 0, false)
	r.turn = 0
	r.scores = [2]int{}
	if r.record != nil {
		*r.record = GameRecord{
			ID:      gameID,
			Ruleset: r.rules,
			Players: [2]string{r.players[0].Name(), r.players[1].Name()},
		}
	}
}

// PlayTurn asks the active player for a number of dice, rolls them and
// advances the game. It returns the result once the game is over.
func (r *GameRunner) PlayTurn(ctx context.Context) (*Result, error) {
	if r.turn >= MaxTurns {
		return nil, fmt.Errorf("game %s did not finish in %d turns", r.gameID, MaxTurns)
	}
	seat := r.seatOnTurn()
	p := r.players[seat]
	r.status()
	n, err := p.Choose(ctx, r.state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%s: cannot roll %d dice", p.Name(), n)
	}
	sum := r.roller.Roll(n, r.rules.Sides)
	if n == 0 {
		r.printf("%s stands on %d\n", p.Name(), r.state.Active)
	} else {
		r.printf("%s rolls %d dice: %d\n", p.Name(), n, sum)
	}

	prev := r.state
	next, verdict := r.rules.Step(prev, n, sum)
	r.scores[seat] = next.Queued
	r.turn++
	r.state = next

	if r.logchan != nil {
		r.logchan <- fmt.Sprintf("%s,%d,%s,%d,%d,%v,%d,%d,%d\n",
			r.gameID, r.turn, p.Name(), prev.Active, prev.Queued, prev.Final, n, sum, next.Queued)
	}
	if r.record != nil {
		r.record.Turns = append(r.record.Turns, TurnRecord{Player: p.Name(), State: prev, Dice: n, Sum: sum})
	}

	if verdict == game.Undecided {
		return nil, nil
	}
	res := &Result{Scores: r.scores, Turns: r.turn, Bust: r.rules.Busts(next.Queued)}
	switch verdict {
	case game.ActiveWins:
		res.Winner = 1 - seat
	case game.QueuedWins:
		res.Winner = seat
	default:
		res.Winner = -1
	}
	if r.record != nil {
		r.record.Result = *res
	}
	r.results(*res)
	log.Debug().Str("game", r.gameID).Int("winner", res.Winner).Int("turns", res.Turns).Msg("game-over")
	return res, nil
}

// PlayGame plays a full game.
func (r *GameRunner) PlayGame(ctx context.Context, gameID string) (Result, error) {
	r.StartGame(gameID)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := r.PlayTurn(ctx)
		if err != nil {
			return Result{}, err
		}
		if res != nil {
			return *res, nil
		}
	}
}
