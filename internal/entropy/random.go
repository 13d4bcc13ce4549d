// Package entropy provides the random sources used by the simulation.
// Seeded sources keep runs reproducible; the crypto source is for servers
// that do not care about replay.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source is the subset of *math/rand.Rand the simulation draws from.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// NewSeeded returns a deterministic source. Not safe for concurrent use;
// the simulation only draws under its own lock.
func NewSeeded(seed int64) *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(seed))
}

// Crypto returns a source backed by crypto/rand.
func Crypto() Source {
	return &cryptoSource{}
}

type cryptoSource struct {
	mu sync.Mutex
}

func (c *cryptoSource) Float64() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cryptoRandFloat()
}

func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(c.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// cryptoRandFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Sequence replays fixed floats, cycling when exhausted. Intn maps the
// next float onto [0, n). Used to script event rolls in tests.
type Sequence struct {
	Values []float64
	pos    int
}

func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0.999
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
