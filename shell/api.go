package shell

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/dice"
	"github.com/greedsolver/greed/export"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
	"github.com/greedsolver/greed/solver"
	"github.com/greedsolver/greed/stats"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) StringDefault(key, defaultS string) string {
	if v := c.String(key); v != "" {
		return v
	}
	return defaultS
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) settings() string {
	var b strings.Builder
	fmt.Fprintf(&b, "max      %d\n", sc.rules.Max)
	fmt.Fprintf(&b, "sides    %d\n", sc.rules.Sides)
	fmt.Fprintf(&b, "search   %s\n", sc.search)
	fmt.Fprintf(&b, "threads  %d\n", sc.threads)
	if sc.table != nil {
		fmt.Fprintf(&b, "table    %v (%016x)", sc.table, sc.table.Fingerprint())
	} else {
		b.WriteString("table    none")
	}
	return b.String()
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.settings()), nil
	}
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: set <max|sides|search|threads> <value>")
	}
	opt, val := cmd.args[0], cmd.args[1]
	switch opt {
	case config.ConfigMax, config.ConfigSides:
		v, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		rules := sc.rules
		if opt == config.ConfigMax {
			rules.Max = v
		} else {
			rules.Sides = v
		}
		if err := rules.Validate(); err != nil {
			return nil, err
		}
		if rules != sc.rules {
			sc.rules = rules
			sc.table = nil
		}
	case config.ConfigSearch:
		m, err := solver.ParseSearchMode(val)
		if err != nil {
			return nil, err
		}
		sc.search = m
	case config.ConfigThreads:
		v, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, errors.New("threads must not be negative")
		}
		sc.threads = v
	default:
		return nil, errors.New("option " + opt + " not recognized")
	}
	return msg("set " + opt + " to " + val), nil
}

// rulesFrom applies -max and -sides options on top of the shell's ruleset.
func (sc *ShellController) rulesFrom(opts CmdOptions) (game.Ruleset, error) {
	maxScore, err := opts.IntDefault("max", sc.rules.Max)
	if err != nil {
		return game.Ruleset{}, err
	}
	sides, err := opts.IntDefault("sides", sc.rules.Sides)
	if err != nil {
		return game.Ruleset{}, err
	}
	return game.NewRuleset(maxScore, sides)
}

func (sc *ShellController) newSolver(rules game.Ruleset, opts CmdOptions) (*solver.Solver, error) {
	s, err := solver.NewFromConfig(sc.config, rules)
	if err != nil {
		return nil, err
	}
	mode := sc.search
	if m := opts.String("search"); m != "" {
		if mode, err = solver.ParseSearchMode(m); err != nil {
			return nil, err
		}
	}
	s.SetSearch(mode)
	threads, err := opts.IntDefault("threads", sc.threads)
	if err != nil {
		return nil, err
	}
	if threads > 0 {
		s.SetThreads(threads)
	}
	return s, nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if sc.busy {
		return nil, errSolving
	}
	rules, err := sc.rulesFrom(cmd.options)
	if err != nil {
		return nil, err
	}
	s, err := sc.newSolver(rules, cmd.options)
	if err != nil {
		return nil, err
	}
	sc.busy = true
	defer func() { sc.busy = false }()

	start := time.Now()
	t, err := s.Solve(sc.ctx)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	sc.rules = rules
	sc.table = t
	log.Info().Str("ruleset", rules.String()).Str("search", s.Search().String()).
		Uint64("evaluations", s.Evaluations()).Dur("elapsed", elapsed).
		Msg("solve-done")

	summary := fmt.Sprintf("solved %v in %v (%d evaluations, fingerprint %016x)",
		rules, elapsed.Round(time.Millisecond), s.Evaluations(), t.Fingerprint())
	if cmd.options.String("format") == "" {
		return msg(summary), nil
	}
	r, err := sc.export(cmd)
	if err != nil {
		return nil, err
	}
	if r.message == "" {
		return msg(summary), nil
	}
	return msg(summary + "\n" + r.message), nil
}

func formatExt(format string) (string, error) {
	switch format {
	case "stdout", "text":
		return "txt", nil
	case "csv", "yaml", "sqlite":
		return format, nil
	}
	return "", fmt.Errorf("format %q not recognized; use stdout, text, csv, yaml or sqlite", format)
}

func (sc *ShellController) defaultPath(rules game.Ruleset, ext string) string {
	return filepath.Join(sc.config.GetString(config.ConfigDataPath),
		fmt.Sprintf("greed-%d-%d.%s", rules.Max, rules.Sides, ext))
}

func (sc *ShellController) export(cmd *shellcmd) (*Response, error) {
	if sc.table == nil {
		return nil, errNoTable
	}
	format := cmd.options.StringDefault("format", "csv")
	ext, err := formatExt(format)
	if err != nil {
		return nil, err
	}
	conv, err := export.ParseConvention(cmd.options.String("convention"))
	if err != nil {
		return nil, err
	}
	if format == "stdout" {
		return msg(""), export.WriteText(sc.out, sc.table, conv)
	}
	path := cmd.options.StringDefault("out", sc.defaultPath(sc.table.Ruleset(), ext))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if format == "sqlite" {
		if err := export.WriteSQLite(sc.ctx, path, sc.table, conv); err != nil {
			return nil, err
		}
		return msg("wrote " + path), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "csv":
		err = export.WriteCSV(f, sc.table, conv)
	case "yaml":
		err = export.WriteYAML(f, sc.table, conv)
	case "text":
		err = export.WriteText(f, sc.table, conv)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return msg("wrote " + path), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <path> [-max M] [-sides S]")
	}
	path := cmd.args[0]
	rules, err := sc.rulesFrom(cmd.options)
	if err != nil {
		return nil, err
	}
	var t *policy.Table
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "sqlite", "db":
		t, _, err = export.ReadSQLite(sc.ctx, path, rules)
	case "yaml", "yml":
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		t, _, err = export.ReadYAML(f)
		f.Close()
	default:
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		t, _, err = export.ReadCSV(f, rules)
		f.Close()
	}
	if err != nil {
		return nil, err
	}
	sc.table = t
	sc.rules = t.Ruleset()
	return msg(fmt.Sprintf("loaded %v (%016x)", t, t.Fingerprint())), nil
}

func parseState(args []string, rules game.Ruleset) (game.State, error) {
	if len(args) < 2 || len(args) > 3 {
		return game.State{}, errors.New("need active and queued scores, and optionally `final`")
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return game.State{}, err
	}
	q, err := strconv.Atoi(args[1])
	if err != nil {
		return game.State{}, err
	}
	final := false
	if len(args) == 3 {
		switch args[2] {
		case "final", "terminal", "last", "true":
			final = true
		case "normal", "false":
		default:
			return game.State{}, fmt.Errorf("%q is not a turn kind", args[2])
		}
	}
	s := game.NewState(a, q, final)
	return s, rules.CheckState(s)
}

func (sc *ShellController) lookup(cmd *shellcmd) (*Response, error) {
	if sc.table == nil {
		return nil, errNoTable
	}
	s, err := parseState(cmd.args, sc.table.Ruleset())
	if err != nil {
		return nil, err
	}
	e, err := sc.table.LookupState(s)
	if err != nil {
		return nil, err
	}
	if e.N == 0 {
		return msg(fmt.Sprintf("%v: stand (win probability %.6f)", s, e.Value)), nil
	}
	return msg(fmt.Sprintf("%v: roll %d dice (win probability %.6f)", s, e.N, e.Value)), nil
}

func (sc *ShellController) tablePMFs() ([]dice.PMF, error) {
	s, err := solver.New(sc.table.Ruleset())
	if err != nil {
		return nil, err
	}
	return s.PMFs(sc.ctx)
}

func (sc *ShellController) verify(cmd *shellcmd) (*Response, error) {
	if sc.table == nil {
		return nil, errNoTable
	}
	pmfs, err := sc.tablePMFs()
	if err != nil {
		return nil, err
	}
	if err := solver.Verify(sc.table, pmfs); err != nil {
		return nil, err
	}
	devs, err := solver.Audit(sc.table, pmfs)
	if err != nil {
		return nil, err
	}
	if len(devs) == 0 {
		return msg(fmt.Sprintf("%v is consistent and optimal", sc.table)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v is consistent; %d states have a better action:\n", sc.table, len(devs))
	for _, d := range lo.Slice(devs, 0, 20) {
		b.WriteString(d.String())
		b.WriteString("\n")
	}
	if len(devs) > 20 {
		fmt.Fprintf(&b, "... and %d more", len(devs)-20)
	}
	return msg(strings.TrimRight(b.String(), "\n")), nil
}

// stats summarizes the actions of the normal states.
func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	if sc.table == nil {
		return nil, errNoTable
	}
	var rolled, values stats.Statistic
	var actions []float64
	stands := 0
	sc.table.Each(func(s game.State, e policy.Entry) {
		if s.Final {
			return
		}
		if e.N == 0 {
			stands++
			return
		}
		rolled.Push(float64(e.N))
		values.Push(e.Value)
		actions = append(actions, float64(e.N))
	})
	var b bytes.Buffer
	fmt.Fprintf(&b, "%v\n", sc.table)
	fmt.Fprintf(&b, "normal states standing: %d\n", stands)
	fmt.Fprintf(&b, "dice when rolling: mean %.3f, stdev %.3f, max %d\n",
		rolled.Mean(), rolled.Stdev(), int(lo.Max(actions)))
	fmt.Fprintf(&b, "win probability when rolling: mean %.4f\n", values.Mean())
	distinct := len(lo.Uniq(actions))
	if distinct > 1 {
		b.WriteString("dice rolled:\n")
		hist := histogram.Hist(min(15, distinct), actions)
		if err := histogram.Fprint(&b, hist, histogram.Linear(40)); err != nil {
			return nil, err
		}
	}
	return msg(strings.TrimRight(b.String(), "\n")), nil
}
