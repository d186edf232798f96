package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

var ErrMalformed = errors.New("malformed policy file")

var csvColumns = []string{"active", "queued", "last", "n"}

// WriteCSV writes one row per state with the header
// active,queued,last,n,<convention>.
func WriteCSV(w io.Writer, t *policy.Table, c Convention) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, csvColumns...), c.String())
	if err := cw.Write(header); err != nil {
		return err
	}
	var err error
	t.Each(func(s game.State, e policy.Entry) {
		if err != nil {
			return
		}
		err = cw.Write([]string{
			strconv.Itoa(s.Active),
			strconv.Itoa(s.Queued),
			strconv.FormatBool(s.Final),
			strconv.Itoa(e.N),
			strconv.FormatFloat(c.Encode(e.Value), 'g', -1, 64),
		})
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. The value convention is taken
// from the header. Every state of the ruleset must appear exactly once.
func ReadCSV(r io.Reader, rules game.Ruleset) (*policy.Table, Convention, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvColumns) + 1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading header: %w", ErrMalformed, err)
	}
	for i, col := range csvColumns {
		if header[i] != col {
			return nil, 0, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformed, i, header[i], col)
		}
	}
	conv, err := ParseConvention(header[len(csvColumns)])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rb, err := newRowBuilder(rules)
	if err != nil {
		return nil, 0, err
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		row.Value = conv.Decode(row.Value)
		if err := rb.add(row); err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
	}
	t, err := rb.build()
	if err != nil {
		return nil, 0, err
	}
	return t, conv, nil
}

func parseRow(rec []string) (Row, error) {
	var row Row
	var err error
	if row.Active, err = strconv.Atoi(rec[0]); err != nil {
		return row, err
	}
	if row.Queued, err = strconv.Atoi(rec[1]); err != nil {
		return row, err
	}
	if row.Last, err = strconv.ParseBool(rec[2]); err != nil {
		return row, err
	}
	if row.N, err = strconv.Atoi(rec[3]); err != nil {
		return row, err
	}
	if row.Value, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return row, err
	}
	return row, nil
}
