package automatic

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompVComp(t *testing.T) {
	tbl := solvedTable(t, 20, 6)
	dir := t.TempDir()
	seeds := make([][32]byte, 64)
	for i := range seeds {
		seeds[i][0] = byte(i)
	}
	opts := AutoplayOptions{
		Rules:    tbl.Ruleset(),
		NumGames: 2000,
		Threads:  4,
		NewPlayers: func() (Player, Player, error) {
			return NewOptimalPlayer("first", tbl), NewOptimalPlayer("second", tbl), nil
		},
		LogFile:     filepath.Join(dir, "turns.csv"),
		GameLogFile: filepath.Join(dir, "games.yaml"),
		Expected:    tbl.At(0, 0, false).Value,
	}
	sum, err := StartCompVCompGames(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2000, sum.First.Iterations())
	assert.Equal(t, 2000, sum.First.Wins+sum.First.Draws+sum.First.Losses)
	assert.Less(t, math.Abs(sum.First.Mean()-opts.Expected), 0.1)
	assert.Equal(t, [2]string{"first", "second"}, sum.Players)
	assert.Contains(t, sum.String(), "Games played: 2,000")
	assert.Equal(t, int64(2000), CVCCounter.Value())
	assert.Equal(t, int64(0), IsPlaying.Value())

	turns, err := os.ReadFile(opts.LogFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(turns)), "\n")
	assert.Equal(t, strings.TrimSpace(logHeader), lines[0])
	assert.Equal(t, int(math.Round(sum.Lengths.Mean()*2000)), len(lines)-1)

	f, err := os.Open(opts.GameLogFile)
	require.NoError(t, err)
	defer f.Close()
	records, err := ReadGameRecords(f)
	require.NoError(t, err)
	assert.Len(t, records, 2000)
	for _, rec := range records {
		assert.Len(t, rec.Turns, rec.Result.Turns)
	}

	report, err := AnalyzeLogFile(opts.LogFile, tbl.Ruleset())
	require.NoError(t, err)
	assert.Contains(t, report, "Games played: 2000")
	assert.Contains(t, report, "first:")
}

func TestCompVCompRejects(t *testing.T) {
	_, err := StartCompVCompGames(context.Background(), AutoplayOptions{NumGames: 0})
	assert.Error(t, err)
}

func TestCompVCompCancelled(t *testing.T) {
	tbl := solvedTable(t, 10, 6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StartCompVCompGames(ctx, AutoplayOptions{
		Rules:    tbl.Ruleset(),
		NumGames: 1000,
		Threads:  2,
		NewPlayers: func() (Player, Player, error) {
			return NewOptimalPlayer("a", tbl), NewOptimalPlayer("b", tbl), nil
		},
		Expected: -1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeedsRoundTrip(t *testing.T) {
	seeds := GenerateSeeds(5)
	var buf bytes.Buffer
	require.NoError(t, WriteSeeds(&buf, seeds))
	got, err := ReadSeeds(&buf)
	require.NoError(t, err)
	assert.Equal(t, seeds, got)

	_, err = ReadSeeds(strings.NewReader("AAAA\n"))
	assert.Error(t, err)
}
