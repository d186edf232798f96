package automatic

// Bot-versus-bot games, to measure a strategy or to check a solved table
// against play.

import (
	"bytes"
	"context"
	"errors"
	"expvar"
	"fmt"
	"os"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/stats"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

const logHeader = "gameID,turn,player,active,queued,last,dice,sum,score\n"

// AutoplayOptions configures a batch of bot games.
type AutoplayOptions struct {
	Rules    game.Ruleset
	NumGames int
	Threads  int
	// NewPlayers returns fresh players for one worker. Players are not
	// shared between goroutines.
	NewPlayers func() (Player, Player, error)
	// Seeds, if set, makes game i use Seeds[i % len(Seeds)].
	Seeds [][32]byte
	// LogFile receives one CSV line per turn when set.
	LogFile string
	// GameLogFile receives a YAML transcript of every game when set.
	GameLogFile string
	// Expected is the first player's value of the opening state, or a
	// negative number if unknown.
	Expected float64
}

// Summary is what a batch of games produced.
type Summary struct {
	Rules    game.Ruleset
	Players  [2]string
	First    stats.WinRate
	Lengths  stats.Statistic
	Busts    int
	Expected float64

	lengths []float64
}

// StartCompVCompGames plays opts.NumGames games and summarizes them. Only
// one batch may run at a time.
func StartCompVCompGames(ctx context.Context, opts AutoplayOptions) (*Summary, error) {
	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}
	if opts.NumGames <= 0 {
		return nil, fmt.Errorf("number of games must be positive, got %d", opts.NumGames)
	}
	threads := max(1, opts.Threads)
	log.Debug().Msgf("Starting %v games, %v threads", opts.NumGames, threads)

	var logChan chan string
	logDone := make(chan error, 1)
	if opts.LogFile != "" {
		logfile, err := os.Create(opts.LogFile)
		if err != nil {
			return nil, err
		}
		logChan = make(chan string, 100)
		go func() {
			_, werr := logfile.WriteString(logHeader)
			for msg := range logChan {
				if werr == nil {
					_, werr = logfile.WriteString(msg)
				}
			}
			if cerr := logfile.Close(); werr == nil {
				werr = cerr
			}
			log.Debug().Msg("Exiting turn logger goroutine!")
			logDone <- werr
		}()
	} else {
		logDone <- nil
	}

	CVCCounter.Set(0)
	jobs := make(chan int, 100)
	results := make([]Result, opts.NumGames)
	var records []*GameRecord
	var recordsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for range threads {
		g.Go(func() error {
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			p1, p2, err := opts.NewPlayers()
			if err != nil {
				return err
			}
			var roller Roller
			if len(opts.Seeds) == 0 {
				roller = NewRoller()
			}
			r := NewGameRunner(opts.Rules, p1, p2, roller)
			r.SetLogChannel(logChan)
			r.SetRecording(opts.GameLogFile != "")
			for i := range jobs {
				if len(opts.Seeds) > 0 {
					r.roller = NewSeededRoller(opts.Seeds[i%len(opts.Seeds)])
				}
				res, err := r.PlayGame(gctx, fmt.Sprintf("game-%d", i))
				if err != nil {
					return err
				}
				results[i] = res
				if rec := r.Record(); rec != nil {
					cp := *rec
					cp.Turns = append([]TurnRecord(nil), rec.Turns...)
					recordsMu.Lock()
					records = append(records, &cp)
					recordsMu.Unlock()
				}
				CVCCounter.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range opts.NumGames {
			select {
			case jobs <- i:
			case <-gctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				return gctx.Err()
			}
			if (i+1)%10000 == 0 {
				log.Info().Msgf("Queued %v jobs", i+1)
			}
		}
		log.Debug().Msg("Finished queueing all jobs.")
		return nil
	})

	err := g.Wait()
	if logChan != nil {
		close(logChan)
	}
	if lerr := <-logDone; err == nil {
		err = lerr
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("games", opts.NumGames).Msg("all-games-finished")

	if opts.GameLogFile != "" {
		if err := writeGameLog(opts.GameLogFile, records); err != nil {
			return nil, err
		}
	}
	p1, p2, err := opts.NewPlayers()
	if err != nil {
		return nil, err
	}
	return summarize(opts, [2]string{p1.Name(), p2.Name()}, results), nil
}

func writeGameLog(path string, records []*GameRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGameRecords(f, records...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func summarize(opts AutoplayOptions, players [2]string, results []Result) *Summary {
	s := &Summary{Rules: opts.Rules, Players: players, Expected: opts.Expected}
	for _, res := range results {
		s.First.Push(res.Outcome(0))
		s.Lengths.Push(float64(res.Turns))
		if res.Bust {
			s.Busts++
		}
	}
	s.lengths = lo.Map(results, func(r Result, _ int) float64 { return float64(r.Turns) })
	return s
}

// Consistent reports whether the expected value lies in the 99% confidence
// interval of the first player's results. It is true when nothing is
// expected.
func (s *Summary) Consistent() bool {
	if s.Expected < 0 {
		return true
	}
	return s.First.Consistent(s.Expected, 99)
}

func (s *Summary) String() string {
	p := message.NewPrinter(language.English)
	var buf bytes.Buffer
	p.Fprintf(&buf, "%v, %s vs %s\n", s.Rules, s.Players[0], s.Players[1])
	p.Fprintf(&buf, "Games played: %d\n", s.First.Iterations())
	p.Fprintf(&buf, "%s (first) win-draw-loss: %s\n", s.Players[0], s.First.String())
	if s.Expected >= 0 {
		p.Fprintf(&buf, "Table value of the opening: %.4f (consistent: %v)\n", s.Expected, s.Consistent())
	}
	p.Fprintf(&buf, "Busts: %d (%.2f%%)\n", s.Busts, 100*float64(s.Busts)/float64(max(1, s.First.Iterations())))
	p.Fprintf(&buf, "Turns per game: mean %.2f, stdev %.2f\n", s.Lengths.Mean(), s.Lengths.Stdev())
	// A histogram needs at least two distinct lengths to span a range.
	if distinct := len(lo.Uniq(s.lengths)); distinct > 1 {
		buf.WriteString("\nGame length histogram:\n")
		hist := histogram.Hist(min(15, distinct), s.lengths)
		histogram.Fprint(&buf, hist, histogram.Linear(40))
	}
	return buf.String()
}
