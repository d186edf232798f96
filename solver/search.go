package solver

import "fmt"

// SearchMode controls how far the action search scans for each state.
type SearchMode int

const (
	// SearchExhaustive scans every dice count that can avoid a certain bust.
	SearchExhaustive SearchMode = iota
	// SearchBounded scans up to the dice count whose mean roll reaches the
	// points left before busting.
	SearchBounded
	// SearchPruned scans like SearchBounded but stops at the first value
	// below the best seen so far. This assumes the value is unimodal in the
	// number of dice, which has been observed but not proven.
	SearchPruned
)

func (m SearchMode) String() string {
	switch m {
	case SearchExhaustive:
		return "exhaustive"
	case SearchBounded:
		return "bounded"
	case SearchPruned:
		return "pruned"
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

func ParseSearchMode(s string) (SearchMode, error) {
	switch s {
	case "exhaustive", "":
		return SearchExhaustive, nil
	case "bounded":
		return SearchBounded, nil
	case "pruned":
		return SearchPruned, nil
	}
	return 0, fmt.Errorf("unknown search mode %q", s)
}
