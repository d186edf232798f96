package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/stats"
)

// AnalyzeLogFile reads a turn log written by StartCompVCompGames and
// summarizes how often each player rolled, busted and won.
func AnalyzeLogFile(filepath string, rules game.Ruleset) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return analyzeLog(file, rules)
}

type playerTally struct {
	turns, stands, busts int
	dice                 stats.Statistic
}

func analyzeLog(r io.Reader, rules game.Ruleset) (string, error) {
	cr := csv.NewReader(r)
	// Record looks like:
	// gameID,turn,player,active,queued,last,dice,sum,score
	cr.FieldsPerRecord = 9

	tallies := map[string]*playerTally{}
	var order []string
	games := map[string]bool{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			continue
		}
		games[record[0]] = true
		name := record[2]
		t, ok := tallies[name]
		if !ok {
			t = &playerTally{}
			tallies[name] = t
			order = append(order, name)
		}
		n, err := strconv.Atoi(record[6])
		if err != nil {
			return "", fmt.Errorf("dice %q: %w", record[6], err)
		}
		score, err := strconv.Atoi(record[8])
		if err != nil {
			return "", fmt.Errorf("score %q: %w", record[8], err)
		}
		t.turns++
		if n == 0 {
			t.stands++
		} else {
			t.dice.Push(float64(n))
		}
		if rules.Busts(score) {
			t.busts++
		}
	}

	out := fmt.Sprintf("Games played: %d\n", len(games))
	for _, name := range order {
		t := tallies[name]
		out += fmt.Sprintf("%v: %d turns, %d stands, %d busts, mean dice per roll %.3f (stdev %.3f)\n",
			name, t.turns, t.stands, t.busts, t.dice.Mean(), t.dice.Stdev())
	}
	return out, nil
}
