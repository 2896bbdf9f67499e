// Package qrng generates random bits by measuring simulated qubits. Every
// qubit in the register is held in the equal superposition |+⟩ and measured
// in the computational basis, so each outcome is a fair coin drawn from the
// injected random source.
//
// This is a simulation aid, not a source of cryptographic randomness: the
// bits are exactly as good as the random.Rand behind them.
package qrng

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84/bitmap"
	"github.com/alan-christopher/bb84sim/bb84/qubit"
	"github.com/alan-christopher/bb84sim/bb84/random"
	"golang.org/x/crypto/sha3"
)

var (
	DefaultQubits = 125
	// DigestBits is the number of raw bits hashed by Digest.
	DigestBits = 512
)

// A Generator measures a register of qubits round-robin.
type Generator struct {
	reg   []qubit.State
	rand  *random.Rand
	next  int
	count int
}

// New returns a Generator with a register of the given number of qubits,
// drawing measurement outcomes from r.
func New(qubits int, r *random.Rand) (*Generator, error) {
	if qubits <= 0 {
		return nil, fmt.Errorf("register needs a positive number of qubits, got %d", qubits)
	}
	if r == nil {
		return nil, errors.New("must provide Rand")
	}
	plus, err := qubit.New(1, 1)
	if err != nil {
		return nil, err
	}
	reg := make([]qubit.State, qubits)
	for i := range reg {
		reg[i] = plus
	}
	return &Generator{reg: reg, rand: r}, nil
}

// Measurements returns the number of qubit measurements made so far.
func (g *Generator) Measurements() int {
	return g.count
}

// Bits returns n freshly measured bits.
func (g *Generator) Bits(n int) bitmap.Dense {
	d := bitmap.NewDense(nil, 0)
	for i := 0; i < n; i++ {
		d.AppendBit(g.measure() == 1)
	}
	return d
}

// Digest hashes DigestBits fresh bits, rendered as a string of '0's and '1's,
// with SHA3-512 and returns the hex encoded hash.
func (g *Generator) Digest() string {
	sum := sha3.Sum512([]byte(g.Bits(DigestBits).String()))
	return hex.EncodeToString(sum[:])
}

// Extract measures rawBits bits and compresses them to outBits bits with a
// Toeplitz hash seeded from seed.
func (g *Generator) Extract(rawBits, outBits int, seed *random.Rand) (bitmap.Dense, error) {
	if seed == nil {
		return bitmap.Empty(), errors.New("must provide seed Rand")
	}
	raw := g.Bits(rawBits)
	diags := bitmap.NewDense(nil, 0)
	for i := 0; i < rawBits+outBits-1; i++ {
		diags.AppendBit(seed.Bit() == 1)
	}
	return Extract(raw, diags, outBits)
}

// measure resets the next qubit in the register to |+⟩, measures it and
// leaves it in its collapsed state.
func (g *Generator) measure() byte {
	i := g.next
	g.next = (g.next + 1) % len(g.reg)
	g.count++
	g.reg[i] = qubit.Prepare(0, qubit.Hadamard)
	out, collapsed := g.reg[i].Measure(qubit.Computational, g.rand)
	g.reg[i] = collapsed
	return out
}
