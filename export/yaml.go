package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

type yamlTable struct {
	Ruleset     game.Ruleset `yaml:"ruleset"`
	Convention  string       `yaml:"convention"`
	Fingerprint string       `yaml:"fingerprint"`
	States      []Row        `yaml:"states"`
}

// WriteYAML writes the ruleset, the table fingerprint and every row.
func WriteYAML(w io.Writer, t *policy.Table, c Convention) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(yamlTable{
		Ruleset:     t.Ruleset(),
		Convention:  c.String(),
		Fingerprint: fmt.Sprintf("%016x", t.Fingerprint()),
		States:      Rows(t, c),
	})
	if err != nil {
		return err
	}
	return enc.Close()
}

// ReadYAML parses a table written by WriteYAML. The ruleset comes from the
// file.
func ReadYAML(r io.Reader) (*policy.Table, Convention, error) {
	var doc yamlTable
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	conv, err := ParseConvention(doc.Convention)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	rb, err := newRowBuilder(doc.Ruleset)
	if err != nil {
		return nil, 0, err
	}
	for _, row := range doc.States {
		row.Value = conv.Decode(row.Value)
		if err := rb.add(row); err != nil {
			return nil, 0, err
		}
	}
	t, err := rb.build()
	if err != nil {
		return nil, 0, err
	}
	if conv == Probability && doc.Fingerprint != "" {
		if got := fmt.Sprintf("%016x", t.Fingerprint()); got != doc.Fingerprint {
			return nil, 0, fmt.Errorf("%w: fingerprint %s, file says %s", ErrMalformed, got, doc.Fingerprint)
		}
	}
	return t, conv, nil
}
