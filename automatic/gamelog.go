package automatic

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/greedsolver/greed/game"
)

// TurnRecord is one turn of a recorded game.
type TurnRecord struct {
	Player string     `yaml:"player"`
	State  game.State `yaml:"state"`
	Dice   int        `yaml:"dice"`
	Sum    int        `yaml:"sum"`
}

// GameRecord is the transcript of a game.
type GameRecord struct {
	ID      string       `yaml:"id"`
	Ruleset game.Ruleset `yaml:"ruleset"`
	Players [2]string    `yaml:"players"`
	Turns   []TurnRecord `yaml:"turns"`
	Result  Result       `yaml:"result"`
}

// WriteGameRecords writes each record as its own YAML document.
func WriteGameRecords(w io.Writer, records ...*GameRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return enc.Close()
}

// ReadGameRecords reads every document written by WriteGameRecords.
func ReadGameRecords(r io.Reader) ([]*GameRecord, error) {
	dec := yaml.NewDecoder(r)
	var out []*GameRecord
	for {
		rec := &GameRecord{}
		err := dec.Decode(rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
