package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/greedsolver/greed/policy"
)

// WriteText writes a human-readable dump, terminal states first.
func WriteText(w io.Writer, t *policy.Table, c Convention) error {
	bw := bufio.NewWriter(w)
	rules := t.Ruleset()
	for _, final := range []bool{true, false} {
		kind := "normal"
		if final {
			kind = "terminal"
		}
		for a := 0; a <= rules.Max; a++ {
			for q := 0; q <= rules.Max; q++ {
				e := t.At(a, q, final)
				fmt.Fprintf(bw, "(%d, %d, %s) => (dice: %d, %s: %.6f)\n", a, q, kind, e.N, c, c.Encode(e.Value))
			}
		}
	}
	return bw.Flush()
}
