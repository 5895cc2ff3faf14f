package simulation

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the random source used by the simulation engines. It is an
// interface so tests can supply deterministic sequences and assert exact
// branch outcomes.
type Rand interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
	// Intn returns a non-negative pseudo-random number in [0, n).
	Intn(n int) int
}

// NewRand returns a time-seeded Rand safe for concurrent use.
func NewRand() Rand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// lockedRand guards a math/rand source with a mutex. The fast and slow
// cadences of every simulated disaster share one source.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
