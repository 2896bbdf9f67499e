// Package random provides the injectable randomness used throughout a BB84
// simulation. Nothing in this module reads a global random source; every
// draw goes through a Rand built from an explicit Source, so that a fixed seed
// reproduces a run exactly.
//
// Rand is not safe for concurrent use. Independent runs need independent Rands.
package random

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Source supplies uniformly distributed 64-bit values.
type Source interface {
	Uint64() uint64
}

// A Rand draws protocol-level values (bits, bases, uniform samples and
// Bernoulli trials) from a Source.
type Rand struct {
	src seedless
	r   *rand.Rand
}

// New returns a Rand drawing from src.
func New(src Source) *Rand {
	s := seedless{src}
	return &Rand{src: s, r: rand.New(s)}
}

// NewSeeded returns a Rand backed by a PCG generator seeded with seed. Two
// Rands built from the same seed produce identical streams.
func NewSeeded(seed uint64) *Rand {
	return New(rand.NewSource(seed))
}

// NewTimeSeeded returns a Rand seeded from the wall clock, along with the seed
// used, so that callers can record it and reproduce the stream later.
func NewTimeSeeded() (*Rand, uint64) {
	seed := uint64(time.Now().UnixNano())
	return NewSeeded(seed), seed
}

// Uint64 returns the next raw value from the underlying Source.
func (r *Rand) Uint64() uint64 {
	return r.src.Uint64()
}

// Float64 returns a uniform sample in [0, 1).
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// Bit returns 0 or 1 with equal probability.
func (r *Rand) Bit() byte {
	return byte(r.src.Uint64() >> 63)
}

// Bernoulli runs a single trial that succeeds with probability p. p <= 0
// never succeeds and p >= 1 always does.
func (r *Rand) Bernoulli(p float64) bool {
	b := distuv.Bernoulli{P: clamp(p), Src: r.src}
	return b.Rand() == 1
}

// Split derives a new, independently seeded Rand from r. It is how a single
// user-facing seed fans out into the separate streams a run needs.
func (r *Rand) Split() *Rand {
	return NewSeeded(r.src.Uint64())
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// seedless adapts a Source to the rand.Source interface expected by
// x/exp/rand and gonum. Seeding belongs to whoever built the wrapped Source,
// so Seed is a no-op.
type seedless struct {
	Source
}

func (seedless) Seed(uint64) {}
