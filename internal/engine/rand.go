package engine

import (
	"math/rand"
	"time"
)

// Rand is the source of every random draw the optimizer makes. It is
// satisfied by *rand.Rand; tests substitute scripted sources to pin exact
// draw sequences.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Perm(n int) []int
}

// NewRand returns a Rand seeded with seed. A zero seed draws one from the clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// distinctPair draws two different indices in [0, n). n must be at least 2.
func distinctPair(rng Rand, n int) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
