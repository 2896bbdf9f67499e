// Package qubit models a single simulated qubit as an independent pair of
// complex amplitudes, together with the two BB84 measurement bases.
package qubit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidState is returned when an amplitude vector cannot be normalized.
var ErrInvalidState = errors.New("invalid qubit state")

// A Basis selects one of the two BB84 measurement bases.
type Basis uint8

const (
	// Computational is the {|0⟩, |1⟩} basis.
	Computational Basis = iota
	// Hadamard is the {|+⟩, |−⟩} basis.
	Hadamard
)

func (b Basis) String() string {
	switch b {
	case Computational:
		return "computational"
	case Hadamard:
		return "hadamard"
	}
	return fmt.Sprintf("Basis(%d)", uint8(b))
}

// Outcome probabilities within snapEps of 0 or 1 are treated as exact, so that
// measuring in the preparation basis is deterministic.
const snapEps = 1e-12

var invSqrt2 = complex(1/math.Sqrt2, 0)

// A Uniform yields uniform samples in [0, 1).
type Uniform interface {
	Float64() float64
}

// A State is an immutable, normalized two-amplitude qubit state.
type State struct {
	amp [2]complex128
}

// New returns the state proportional to a0|0⟩ + a1|1⟩. It fails with
// ErrInvalidState if the vector is zero or contains a non-finite component.
func New(a0, a1 complex128) (State, error) {
	for _, a := range []complex128{a0, a1} {
		if cmplx.IsNaN(a) || cmplx.IsInf(a) {
			return State{}, fmt.Errorf("%w: non-finite amplitude %v", ErrInvalidState, a)
		}
	}
	// Hypot and cmplx.Abs scale internally, so neither tiny nor huge finite
	// vectors under- or overflow.
	norm := math.Hypot(cmplx.Abs(a0), cmplx.Abs(a1))
	if norm == 0 {
		return State{}, fmt.Errorf("%w: zero amplitude vector", ErrInvalidState)
	}
	return State{amp: [2]complex128{scale(a0, norm), scale(a1, norm)}}, nil
}

func scale(a complex128, norm float64) complex128 {
	return complex(real(a)/norm, imag(a)/norm)
}

// Prepare encodes bit in basis: |0⟩ or |1⟩ for Computational, |+⟩ or |−⟩ for
// Hadamard. Any non-zero bit is treated as 1.
func Prepare(bit byte, basis Basis) State {
	switch {
	case basis == Hadamard && bit == 0:
		return State{amp: [2]complex128{invSqrt2, invSqrt2}}
	case basis == Hadamard:
		return State{amp: [2]complex128{invSqrt2, -invSqrt2}}
	case bit == 0:
		return State{amp: [2]complex128{1, 0}}
	}
	return State{amp: [2]complex128{0, 1}}
}

// Amplitudes returns the |0⟩ and |1⟩ amplitudes of s.
func (s State) Amplitudes() (complex128, complex128) {
	return s.amp[0], s.amp[1]
}

// Norm returns the sum of squared amplitude magnitudes, which is 1 for every
// State built by this package.
func (s State) Norm() float64 {
	return sqAbs(s.amp[0]) + sqAbs(s.amp[1])
}

// Prob0 returns the probability that measuring s in basis yields 0.
func (s State) Prob0(basis Basis) float64 {
	a := s.amp[0]
	if basis == Hadamard {
		a = (s.amp[0] + s.amp[1]) * invSqrt2
	}
	p := sqAbs(a)
	switch {
	case p < snapEps:
		return 0
	case p > 1-snapEps:
		return 1
	}
	return p
}

// Measure measures s in basis, consuming exactly one sample from u. It returns
// the classical outcome and the eigenstate s collapses to. s itself is left
// untouched; callers that model a destructive measurement should drop it.
func (s State) Measure(basis Basis, u Uniform) (byte, State) {
	var outcome byte
	if u.Float64() >= s.Prob0(basis) {
		outcome = 1
	}
	return outcome, Prepare(outcome, basis)
}

func sqAbs(a complex128) float64 {
	return real(a)*real(a) + imag(a)*imag(a)
}
