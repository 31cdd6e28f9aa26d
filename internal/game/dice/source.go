package dice

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// seededSource implements Source with a PCG generator so a scenario can be
// replayed exactly from its seed.
type seededSource struct {
	rng *mrand.Rand
}

// NewSeededSource returns a reproducible Source for seed.
//
// Postcondition: Two sources built from the same seed yield identical sequences.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 returns a pseudo-random value in [0, 1).
func (s *seededSource) Float64() float64 {
	return s.rng.Float64()
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, 1).
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Float64 returns a cryptographically secure value in [0, 1).
//
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	// 53 random mantissa bits, the same construction math/rand uses.
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// RandomSeed returns a seed drawn from crypto/rand for callers that want a
// fresh but still replayable scenario.
func RandomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
