// Package dice computes the distribution of the sum of n fair dice.
package dice

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tolerance is how far the total mass of a cached pmf may drift from 1.
const Tolerance = 1e-9

var (
	ErrInvalidSides   = errors.New("dice must have at least one side")
	ErrNegativeDice   = errors.New("number of dice cannot be negative")
	ErrNumericalFault = errors.New("numerical fault")
)

// PMF maps a dice total t (the index) to its probability. A PMF for n dice
// with s sides has length n*s+1; totals below n have probability 0.
type PMF []float64

// Prob returns the probability of total t, or 0 if t is not attainable.
func (p PMF) Prob(t int) float64 {
	if t < 0 || t >= len(p) {
		return 0
	}
	return p[t]
}

// MaxTotal is the largest attainable total.
func (p PMF) MaxTotal() int {
	return len(p) - 1
}

func (p PMF) Mass() float64 {
	return floats.Sum(p)
}

func (p PMF) Mean() float64 {
	var m float64
	for t, pr := range p {
		m += float64(t) * pr
	}
	return m
}

// Mean is the expected total of n dice with the given number of sides.
func Mean(n, sides int) float64 {
	return float64(n) * float64(sides+1) / 2
}

// Validate checks that every entry is a finite probability and that the
// mass is 1 within Tolerance.
func Validate(p PMF) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty pmf", ErrNumericalFault)
	}
	for t, pr := range p {
		if math.IsNaN(pr) || math.IsInf(pr, 0) || pr < 0 || pr > 1+Tolerance {
			return fmt.Errorf("%w: p(%d) = %v", ErrNumericalFault, t, pr)
		}
	}
	if mass := p.Mass(); math.Abs(mass-1) > Tolerance {
		return fmt.Errorf("%w: pmf mass is %v", ErrNumericalFault, mass)
	}
	return nil
}

// point is the pmf of rolling no dice.
func point() PMF {
	return PMF{1}
}

// uniform is the pmf of a single die.
func uniform(sides int) PMF {
	p := make(PMF, sides+1)
	pr := 1 / float64(sides)
	for t := 1; t <= sides; t++ {
		p[t] = pr
	}
	return p
}

// renormalize clamps entries below the support and any negative noise to
// zero, then rescales so the mass is exactly 1.
func renormalize(p PMF, minTotal int) {
	for t := range p {
		if t < minTotal || p[t] < 0 {
			p[t] = 0
		}
	}
	mass := floats.Sum(p)
	if mass > 0 {
		floats.Scale(1/mass, p)
	}
}
