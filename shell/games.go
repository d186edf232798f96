package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/greedsolver/greed/automatic"
	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
	"github.com/greedsolver/greed/remote"
)

const HumanPlayer = "human"

// ensureTable solves the shell's ruleset if no table is loaded.
func (sc *ShellController) ensureTable() (*policy.Table, error) {
	if sc.table != nil && sc.table.Ruleset() == sc.rules {
		return sc.table, nil
	}
	if sc.busy {
		return nil, errSolving
	}
	s, err := sc.newSolver(sc.rules, CmdOptions{})
	if err != nil {
		return nil, err
	}
	sc.showMessage(fmt.Sprintf("solving %v first...", sc.rules))
	sc.busy = true
	defer func() { sc.busy = false }()
	t, err := s.Solve(sc.ctx)
	if err != nil {
		return nil, err
	}
	sc.table = t
	return t, nil
}

func needsTable(specs ...string) bool {
	for _, s := range specs {
		if s == automatic.PolicyPlayer {
			return true
		}
	}
	return false
}

// humanPlayer asks on the shell how many dice to roll, with a hint from the
// table when there is one.
func (sc *ShellController) humanPlayer(name string, t *policy.Table) automatic.Player {
	return automatic.PlayerFunc{
		PlayerName: name,
		Fn: func(ctx context.Context, s game.State) (int, error) {
			if t != nil {
				if e, err := t.LookupState(s); err == nil {
					log.Debug().Int("hint", e.N).Float64("value", e.Value).Msg("policy-hint")
				}
			}
			for {
				if err := ctx.Err(); err != nil {
					return 0, err
				}
				line, err := sc.input(fmt.Sprintf("%s, how many dice? ", name))
				if err != nil {
					if err == io.EOF {
						return 0, errors.New("no more input")
					}
					return 0, err
				}
				n, err := strconv.Atoi(strings.TrimSpace(line))
				if err != nil || n < 0 {
					sc.showMessage("please enter a number of dice, 0 to stand")
					continue
				}
				return n, nil
			}
		},
	}
}

func (sc *ShellController) newPlayer(spec, name string, t *policy.Table) (automatic.Player, error) {
	if spec == HumanPlayer {
		return sc.humanPlayer(name, t), nil
	}
	return automatic.NewPlayer(spec, name, t)
}

func playerName(spec string, seat int, opts CmdOptions) string {
	if n := opts.String(fmt.Sprintf("name%d", seat+1)); n != "" {
		return n
	}
	return fmt.Sprintf("%s-%d", spec, seat+1)
}

// play narrates one game. Players default to a human against the policy.
func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	specs := []string{HumanPlayer, automatic.PolicyPlayer}
	copy(specs, cmd.args)
	if len(cmd.args) > 2 {
		return nil, errors.New("usage: play [player1] [player2]")
	}
	rules, err := sc.rulesFrom(cmd.options)
	if err != nil {
		return nil, err
	}
	sc.rules = rules
	var t *policy.Table
	if needsTable(specs...) || sc.table != nil {
		if t, err = sc.ensureTable(); err != nil {
			return nil, err
		}
	}
	var players [2]automatic.Player
	for i, spec := range specs {
		if players[i], err = sc.newPlayer(spec, playerName(spec, i, cmd.options), t); err != nil {
			return nil, err
		}
	}
	roller := automatic.NewRoller()
	if seed := cmd.options.String("seed"); seed != "" {
		var b [32]byte
		copy(b[:], seed)
		roller = automatic.NewSeededRoller(b)
	}
	r := automatic.NewGameRunner(rules, players[0], players[1], roller)
	r.SetOutput(sc.out)
	r.Banner()
	_, err = r.PlayGame(sc.ctx, "shell")
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 && cmd.args[0] == "stop" {
		return nil, errors.New("autoplay runs in the foreground; interrupt it with ^C")
	}
	rules, err := sc.rulesFrom(cmd.options)
	if err != nil {
		return nil, err
	}
	sc.rules = rules
	games, err := cmd.options.IntDefault("games", 1000)
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", max(1, sc.threads))
	if err != nil {
		return nil, err
	}
	specs := [2]string{
		cmd.options.StringDefault("p1", automatic.PolicyPlayer),
		cmd.options.StringDefault("p2", automatic.PolicyPlayer),
	}
	if specs[0] == HumanPlayer || specs[1] == HumanPlayer {
		return nil, errors.New("autoplay is for bots; use `play` to play yourself")
	}
	var t *policy.Table
	if needsTable(specs[:]...) {
		if t, err = sc.ensureTable(); err != nil {
			return nil, err
		}
	}
	opts := automatic.AutoplayOptions{
		Rules:       rules,
		NumGames:    games,
		Threads:     threads,
		LogFile:     cmd.options.String("logfile"),
		GameLogFile: cmd.options.String("gamelog"),
		Expected:    -1,
		NewPlayers: func() (automatic.Player, automatic.Player, error) {
			p1, err := automatic.NewPlayer(specs[0], playerName(specs[0], 0, cmd.options), t)
			if err != nil {
				return nil, nil, err
			}
			p2, err := automatic.NewPlayer(specs[1], playerName(specs[1], 1, cmd.options), t)
			return p1, p2, err
		},
	}
	if specs[0] == automatic.PolicyPlayer && specs[1] == automatic.PolicyPlayer {
		opts.Expected = t.MustLookup(game.NewState(0, 0, false)).Value
	}
	if path := cmd.options.String("seeds"); path != "" {
		if opts.Seeds, err = automatic.LoadSeeds(path); err != nil {
			return nil, err
		}
	}
	if path := cmd.options.String("saveseeds"); path != "" {
		if opts.Seeds == nil {
			opts.Seeds = automatic.GenerateSeeds(games)
		}
		if err := automatic.SaveSeeds(opts.Seeds, path); err != nil {
			return nil, err
		}
	}
	summary, err := automatic.StartCompVCompGames(sc.ctx, opts)
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(summary.String(), "\n")), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: analyze <turn log file>")
	}
	rules, err := sc.rulesFrom(cmd.options)
	if err != nil {
		return nil, err
	}
	out, err := automatic.AnalyzeLogFile(cmd.args[0], rules)
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(out, "\n")), nil
}

// remote asks the lookup lambda instead of the local table.
func (sc *ShellController) remote(cmd *shellcmd) (*Response, error) {
	rules, err := sc.rulesFrom(cmd.options)
	if err != nil {
		return nil, err
	}
	s, err := parseState(cmd.args, rules)
	if err != nil {
		return nil, err
	}
	fn := cmd.options.StringDefault("function", sc.config.GetString(config.ConfigLambdaFunction))
	client, err := remote.NewClient(sc.ctx, fn)
	if err != nil {
		return nil, err
	}
	resp, err := client.Lookup(sc.ctx, remote.Request{
		Max:    rules.Max,
		Sides:  rules.Sides,
		Active: s.Active,
		Queued: s.Queued,
		Final:  s.Final,
	})
	if err != nil {
		return nil, err
	}
	return msg(resp.String()), nil
}
