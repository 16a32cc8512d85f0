// Package engine builds call decks and player cards and verifies win claims.
// Everything here is pure apart from the injected random source.
package engine

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source of randomness for shuffles and card draws
type Rand interface {
	IntN(n int) int
}

// NewRand returns a seeded source, used by tests that need repeatable draws
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// DefaultRand is safe for use by many room goroutines at once
func DefaultRand() Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Shuffle returns a uniformly permuted copy of items; the input is left untouched
func Shuffle[T any](rng Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
