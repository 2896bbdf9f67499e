// Package bb84 simulates the BB84 quantum key distribution handshake between
// a sender and a receiver: qubit preparation, measurement in randomly chosen
// bases, basis sifting, channel error estimation and key finalization.
//
// A run is strictly sequential and owned by a single Engine. All randomness is
// drawn from the Config's Rand, so a seeded Rand reproduces a run bit for bit.
// An Engine left to pick its own Rand reports the seed it chose via Seed.
package bb84

import (
	"errors"
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84/bitmap"
	"github.com/alan-christopher/bb84sim/bb84/qubit"
	"github.com/alan-christopher/bb84sim/bb84/random"
)

var (
	DefaultNumQubits              = 125
	DefaultSampleSize             = 25
	DefaultErrorProbability       = 0.02
	DefaultReconciliationOverhead = 10
)

var (
	// ErrInvalidState is returned for malformed qubit amplitude vectors.
	ErrInvalidState = qubit.ErrInvalidState
	// ErrInsufficientQubits is returned when a run is configured with no
	// qubits, or with a sample larger than the number of qubits.
	ErrInsufficientQubits = errors.New("insufficient qubits")
	// ErrProtocolOrder is returned when a protocol phase is invoked out of
	// sequence.
	ErrProtocolOrder = errors.New("protocol phase out of order")
	// ErrInvalidConfig is returned for out-of-range probabilities or
	// overheads.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Stats packages together the metrics of a single BB84 run.
type Stats struct {
	// RawBits is the number of qubits exchanged.
	RawBits int
	// SiftedBits is the number of rounds whose bases matched.
	SiftedBits int
	// SampledBits is the number of sifted bits used for error estimation, or 0
	// if there were too few sifted bits to sample.
	SampledBits int
	// InjectedErrors is the number of simulated channel errors in the sample.
	InjectedErrors int
	// QBER is the estimated quantum bit error rate.
	QBER float64
	// KeyBits is the length of the final key.
	KeyBits int
	// SiftMismatches counts sifted rounds where the receiver's measurement
	// differs from the sender's bit. It is a diagnostic of the simulated
	// channel and plays no part in the QBER estimate.
	SiftMismatches int
}

// A Result is the output of a completed run.
type Result struct {
	// Key is the final key: the leading Stats.KeyBits bits of SiftedKey.
	Key       bitmap.Dense
	SiftedKey bitmap.Dense
	Stats     Stats
}

// A Config packages together the parameters of a run. Unlike most option
// structs, zero values are meaningful for several fields (e.g. an error
// probability of 0), so start from DefaultConfig rather than a literal.
type Config struct {
	// NumQubits is the number of qubits to exchange. Must be positive.
	NumQubits int

	// SampleSize is the number of sifted bits sampled for error estimation.
	// Must be positive and no larger than NumQubits.
	SampleSize int

	// ErrorProbability is the per-bit probability of a simulated channel
	// error. Must be in [0, 1].
	ErrorProbability float64

	// ReconciliationOverhead is the number of sifted bits considered spent on
	// error correction and privacy amplification. Must be non-negative.
	ReconciliationOverhead int

	// Rand provides all randomness for the run. This may use pRNG; the
	// simulation makes no claim to cryptographic security. Defaults to a
	// time-seeded source, whose seed Engine.Seed reports.
	Rand *random.Rand

	// Generator supplies sender and receiver choices. Defaults to a
	// Generator drawing from streams split off Rand.
	Generator Generator
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		NumQubits:              DefaultNumQubits,
		SampleSize:             DefaultSampleSize,
		ErrorProbability:       DefaultErrorProbability,
		ReconciliationOverhead: DefaultReconciliationOverhead,
	}
}

// Validate reports whether c describes a runnable protocol.
func (c Config) Validate() error {
	if c.NumQubits <= 0 {
		return fmt.Errorf("%w: num qubits must be positive, got %d", ErrInsufficientQubits, c.NumQubits)
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("%w: sample size must be positive, got %d", ErrInsufficientQubits, c.SampleSize)
	}
	if c.SampleSize > c.NumQubits {
		return fmt.Errorf("%w: sample size %d exceeds num qubits %d", ErrInsufficientQubits, c.SampleSize, c.NumQubits)
	}
	if !(c.ErrorProbability >= 0 && c.ErrorProbability <= 1) {
		return fmt.Errorf("%w: error probability must be in [0, 1], got %v", ErrInvalidConfig, c.ErrorProbability)
	}
	if c.ReconciliationOverhead < 0 {
		return fmt.Errorf("%w: reconciliation overhead must be non-negative, got %d", ErrInvalidConfig, c.ReconciliationOverhead)
	}
	return nil
}

// A Generator supplies the random choices of both parties. Implementations
// are consulted once per round, in round order.
type Generator interface {
	// SenderChoice returns the sender's bit and encoding basis.
	SenderChoice() (bit byte, basis qubit.Basis)
	// ReceiverBasis returns the receiver's measurement basis.
	ReceiverBasis() qubit.Basis
}

// A RandomGenerator draws uniform, independent choices for each party from
// that party's own stream.
type RandomGenerator struct {
	sender   *random.Rand
	receiver *random.Rand
}

// NewGenerator returns a RandomGenerator. sender and receiver should be
// distinct streams so that the parties' choices are uncorrelated.
func NewGenerator(sender, receiver *random.Rand) *RandomGenerator {
	return &RandomGenerator{sender: sender, receiver: receiver}
}

// SenderChoice implements the Generator interface.
func (g *RandomGenerator) SenderChoice() (byte, qubit.Basis) {
	bit := g.sender.Bit()
	return bit, qubit.Basis(g.sender.Bit())
}

// ReceiverBasis implements the Generator interface.
func (g *RandomGenerator) ReceiverBasis() qubit.Basis {
	return qubit.Basis(g.receiver.Bit())
}
