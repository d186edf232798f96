package dice

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache computes the pmf for each dice count once and shares it. It is safe
// for concurrent use; the returned PMFs must not be modified.
type Cache struct {
	sides             int
	spectralThreshold int

	mu    sync.RWMutex
	pmfs  map[int]PMF
	group singleflight.Group
}

// New returns an empty cache for dice with the given number of sides.
func New(sides int) (*Cache, error) {
	if sides <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSides, sides)
	}
	return &Cache{
		sides:             sides,
		spectralThreshold: DefaultSpectralThreshold,
		pmfs:              map[int]PMF{0: point(), 1: uniform(sides)},
	}, nil
}

func (c *Cache) Sides() int {
	return c.sides
}

// SetSpectralThreshold changes when convolutions go through an FFT. It only
// affects pmfs that have not been computed yet.
func (c *Cache) SetSpectralThreshold(t int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spectralThreshold = t
}

// Len is the number of cached dice counts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pmfs)
}

func (c *Cache) cached(n int) (PMF, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pmfs[n]
	return p, ok
}

// PMF returns the distribution of the sum of n dice.
func (c *Cache) PMF(n int) (PMF, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeDice, n)
	}
	if p, ok := c.cached(n); ok {
		return p, nil
	}
	v, err, _ := c.group.Do(strconv.Itoa(n), func() (any, error) {
		// Another caller may have committed while we waited to get in.
		if p, ok := c.cached(n); ok {
			return p, nil
		}
		p, err := c.compute(n)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.pmfs[n]; ok {
			return existing, nil
		}
		c.pmfs[n] = p
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p, ok := v.(PMF)
	if !ok {
		return nil, fmt.Errorf("unexpected type from pmf group: %T", v)
	}
	return p, nil
}

// compute builds pmf(n) from pmf(n-n/2) and pmf(n/2). Both halves come from
// the cache, so building pmf(n) for increasing n costs one convolution each.
func (c *Cache) compute(n int) (PMF, error) {
	half := n / 2
	a, err := c.PMF(n - half)
	if err != nil {
		return nil, err
	}
	b, err := c.PMF(half)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	threshold := c.spectralThreshold
	c.mu.RUnlock()

	p := Convolve(a, b, threshold)
	renormalize(p, n)
	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("pmf of %d d%d: %w", n, c.sides, err)
	}
	return p, nil
}

// Precompute fills the cache for every dice count up to maxDice and returns
// them indexed by dice count.
func (c *Cache) Precompute(ctx context.Context, maxDice, threads int) ([]PMF, error) {
	if maxDice < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeDice, maxDice)
	}
	out := make([]PMF, maxDice+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(threads, 1))
	for n := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := c.PMF(n)
			if err != nil {
				return err
			}
			out[n] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug().Int("sides", c.sides).Int("max-dice", maxDice).Msg("pmfs-ready")
	return out, nil
}
