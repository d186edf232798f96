// Package export writes solved policy tables to files and reads them back.
//
// Tables always hold values in [0, 1]. Some consumers want the zero-sum
// payoff 2v-1 in [-1, 1] instead; the conversion happens here and nowhere
// else.
package export

import "fmt"

// Convention is how values are written.
type Convention int

const (
	// Probability writes the value as is: 0 loss, 0.5 draw, 1 win.
	Probability Convention = iota
	// Payoff writes 2v-1: -1 loss, 0 draw, 1 win.
	Payoff
)

func (c Convention) String() string {
	switch c {
	case Probability:
		return "probability"
	case Payoff:
		return "payoff"
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

func ParseConvention(s string) (Convention, error) {
	switch s {
	case "probability", "":
		return Probability, nil
	case "payoff":
		return Payoff, nil
	}
	return 0, fmt.Errorf("unknown value convention %q", s)
}

// Encode converts a table value to this convention.
func (c Convention) Encode(v float64) float64 {
	if c == Payoff {
		return 2*v - 1
	}
	return v
}

// Decode converts a written value back to a table value.
func (c Convention) Decode(x float64) float64 {
	if c == Payoff {
		return (x + 1) / 2
	}
	return x
}
