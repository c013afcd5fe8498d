// Package random defines the pseudo-random source used by item rolling and
// fusion. Production code uses a seeded math/rand generator; tests script the
// exact draws.
package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the roll functions depend on.
type Source interface {
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// New returns a seeded source. A zero seed uses the current time.
func New(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Locked wraps a Source so it can be shared by concurrent player sessions.
type Locked struct {
	mu  sync.Mutex
	src Source
}

// NewLocked guards src with a mutex.
func NewLocked(src Source) *Locked {
	return &Locked{src: src}
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Scripted replays fixed draws. Ints and Floats are consumed independently;
// once a queue is exhausted it returns 0.
type Scripted struct {
	Ints   []int
	Floats []float64
}

// NewScripted builds a Scripted source from the given integer draws.
func NewScripted(ints ...int) *Scripted {
	return &Scripted{Ints: ints}
}

// WithFloats appends float draws and returns the receiver.
func (s *Scripted) WithFloats(f ...float64) *Scripted {
	s.Floats = append(s.Floats, f...)
	return s
}

func (s *Scripted) Intn(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if n <= 0 {
		return 0
	}
	return ((v % n) + n) % n
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}
