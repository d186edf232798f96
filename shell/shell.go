package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
	"github.com/greedsolver/greed/solver"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errNoTable           = errors.New("no solved table; please `solve` or `load` one first")
	errSolving           = errors.New("greed is busy solving, please wait")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l          *readline.Instance
	config     *config.Config
	execPath   string
	gitVersion string

	out   io.Writer
	input func(prompt string) (string, error)

	ctx    context.Context
	cancel context.CancelFunc

	rules   game.Ruleset
	search  solver.SearchMode
	threads int
	table   *policy.Table
	busy    bool
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, execPath, gitVersion)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mgreed>\033[0m ",
		HistoryFile:     "/tmp/greed-readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	sc.input = func(prompt string) (string, error) {
		defer l.SetPrompt("\033[32mgreed>\033[0m ")
		l.SetPrompt(prompt)
		return l.Readline()
	}
	return sc
}

// newController sets up everything but the terminal, so commands can also
// run against plain readers and writers.
func newController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := &ShellController{
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		out:        os.Stderr,
		input: func(string) (string, error) {
			return "", io.EOF
		},
	}
	sc.ctx, sc.cancel = context.WithCancel(context.Background())
	rules, err := cfg.Ruleset()
	if err != nil {
		log.Err(err).Msg("bad-ruleset-in-config-using-default")
		rules = game.DefaultRuleset()
	}
	sc.rules = rules
	sc.search, err = solver.ParseSearchMode(cfg.GetString(config.ConfigSearch))
	if err != nil {
		log.Err(err).Msg("bad-search-mode-in-config")
	}
	sc.threads = cfg.GetInt(config.ConfigThreads)
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a command line into the command, its positional
// arguments and its -options. Every option takes exactly one value; an
// option may be given more than once.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		f := fields[idx]
		if !strings.HasPrefix(f, "-") || isNumber(f) {
			args = append(args, f)
			continue
		}
		if idx+1 >= len(fields) {
			return nil, errWrongOptionSyntax
		}
		key := f[1:]
		options[key] = append(options[key], fields[idx+1])
		idx++
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "help":
		return sc.help(cmd)
	case "set":
		return sc.set(cmd)
	case "solve":
		return sc.solve(cmd)
	case "load":
		return sc.load(cmd)
	case "export":
		return sc.export(cmd)
	case "lookup":
		return sc.lookup(cmd)
	case "verify":
		return sc.verify(cmd)
	case "stats":
		return sc.stats(cmd)
	case "play":
		return sc.play(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "remote":
		return sc.remote(cmd)
	case "script":
		return sc.script(cmd)
	case "version":
		return msg(sc.gitVersion), nil
	}
	return nil, fmt.Errorf("command %v not found", strconv.Quote(cmd.cmd))
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) error {
	cmd, err := extractFields(line)
	if err != nil {
		if err != errNoData {
			sc.showError(err)
		}
		return nil
	}
	if cmd.cmd == "exit" || cmd.cmd == "bye" {
		sig <- syscall.SIGINT
		return errors.New("sending quit signal")
	}
	resp, err := sc.dispatch(cmd)
	if err != nil {
		sc.showError(err)
		return nil
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return nil
}

// Execute runs a single command line and returns.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	if err := sc.standardModeSwitch(line, sig); err != nil {
		log.Error().Err(err).Msg("")
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if err := sc.standardModeSwitch(line, sig); err != nil {
			log.Error().Err(err).Msg("")
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup cancels any running solve or game.
func (sc *ShellController) Cleanup() {
	log.Info().Msg("cleaning up shell")
	sc.cancel()
}
