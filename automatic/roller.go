package automatic

import (
	"lukechampine.com/frand"
)

// Roller rolls n dice with the given number of sides and returns the sum.
type Roller interface {
	Roll(n, sides int) int
}

type frandRoller struct {
	rng *frand.RNG
}

// NewRoller returns a roller seeded from the system entropy source.
func NewRoller() Roller {
	return frandRoller{rng: frand.New()}
}

// NewSeededRoller returns a roller that produces the same rolls for the same
// seed.
func NewSeededRoller(seed [32]byte) Roller {
	return frandRoller{rng: frand.NewCustom(seed[:], 1024, 12)}
}

func (r frandRoller) Roll(n, sides int) int {
	sum := 0
	for range n {
		sum += 1 + r.rng.Intn(sides)
	}
	return sum
}
