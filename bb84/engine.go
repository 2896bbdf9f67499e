package bb84

import (
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84/bitmap"
	"github.com/alan-christopher/bb84sim/bb84/photon"
	"github.com/alan-christopher/bb84sim/bb84/qubit"
	"github.com/alan-christopher/bb84sim/bb84/random"
)

// A Phase is a stage of the protocol. Phases only ever move forward.
type Phase int

const (
	// Preparing: the sender is encoding qubits.
	Preparing Phase = iota
	// Measuring: the receiver has begun measuring qubits. Preparation of
	// later rounds may continue.
	Measuring
	// Sifting: bases have been compared and the sifted key is known.
	Sifting
	// Estimating: the QBER has been estimated.
	Estimating
	// Finalized: the final key has been derived. The run is over.
	Finalized
)

func (p Phase) String() string {
	switch p {
	case Preparing:
		return "preparing"
	case Measuring:
		return "measuring"
	case Sifting:
		return "sifting"
	case Estimating:
		return "estimating"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// A Round records both parties' view of one qubit exchange.
type Round struct {
	SenderBit     byte
	SenderBasis   qubit.Basis
	ReceiverBasis qubit.Basis
	// Measurement is the receiver's outcome. Only meaningful once Measured.
	Measurement byte
	Measured    bool
}

// An Engine runs one BB84 exchange. It owns every Round of the run, and is
// single-use: once Finalized, or once any phase has failed, build a new
// Engine. An Engine is not safe for concurrent use.
type Engine struct {
	seed     *uint64
	cfg      Config
	gen      Generator
	measRand *random.Rand
	est      Estimator
	sender   photon.Sender
	receiver photon.Receiver

	rounds   []Round
	prepared int
	measured int
	phase    Phase
	sifted   bitmap.Dense
	stats    Stats
}

// NewEngine returns an Engine configured in accordance with cfg, or an error
// if the configuration is nonsensical.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root := cfg.Rand
	var seed *uint64
	if root == nil {
		var s uint64
		root, s = random.NewTimeSeeded()
		seed = &s
	}
	// Streams are split in a fixed order so that a seeded root reproduces
	// every draw of the run.
	senderRand, receiverRand := root.Split(), root.Split()
	measRand, estRand := root.Split(), root.Split()
	gen := cfg.Generator
	if gen == nil {
		gen = NewGenerator(senderRand, receiverRand)
	}
	sender, receiver := photon.NewSimulatedChannel(cfg.NumQubits)
	return &Engine{
		seed:     seed,
		cfg:      cfg,
		gen:      gen,
		measRand: measRand,
		est: Estimator{
			SampleSize:       cfg.SampleSize,
			ErrorProbability: cfg.ErrorProbability,
			Rand:             estRand,
		},
		sender:   sender,
		receiver: receiver,
		rounds:   make([]Round, cfg.NumQubits),
	}, nil
}

// Seed returns the seed of the time-seeded Rand the Engine built because
// Config.Rand was nil. Passing random.NewSeeded(seed) as Config.Rand, with the
// rest of the Config unchanged, reproduces the run. ok is false when the
// caller supplied the Rand.
func (e *Engine) Seed() (seed uint64, ok bool) {
	if e.seed == nil {
		return 0, false
	}
	return *e.seed, true
}

// Phase returns the stage the run has reached.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Rounds returns a copy of the per-round records.
func (e *Engine) Rounds() []Round {
	r := make([]Round, len(e.rounds))
	copy(r, e.rounds)
	return r
}

// Run drives every remaining phase of the protocol and returns the result. On
// error, no partial result is returned.
func (e *Engine) Run() (Result, error) {
	if err := e.Prepare(); err != nil {
		return Result{}, err
	}
	if err := e.Measure(); err != nil {
		return Result{}, err
	}
	if _, err := e.Sift(); err != nil {
		return Result{}, err
	}
	if _, err := e.Estimate(); err != nil {
		return Result{}, err
	}
	return e.Finalize()
}

// Run performs a complete exchange with a fresh Engine built from cfg.
func Run(cfg Config) (Result, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return Result{}, err
	}
	return e.Run()
}

// Prepare encodes every round not yet prepared.
func (e *Engine) Prepare() error {
	for i := e.prepared; i < len(e.rounds); i++ {
		if err := e.PrepareRound(i); err != nil {
			return err
		}
	}
	return nil
}

// PrepareRound draws the sender's bit and basis for round i, encodes them
// into a qubit and sends it. Rounds must be prepared in index order.
func (e *Engine) PrepareRound(i int) error {
	if e.phase > Measuring {
		return fmt.Errorf("%w: preparing round %d while %v", ErrProtocolOrder, i, e.phase)
	}
	if i != e.prepared {
		return fmt.Errorf("%w: preparing round %d, next round is %d", ErrProtocolOrder, i, e.prepared)
	}
	if i >= len(e.rounds) {
		return fmt.Errorf("%w: all %d rounds already prepared", ErrProtocolOrder, len(e.rounds))
	}
	bit, basis := e.gen.SenderChoice()
	if err := e.sender.Send(i, qubit.Prepare(bit, basis)); err != nil {
		return fmt.Errorf("sending round %d: %w", i, err)
	}
	e.rounds[i].SenderBit = bit
	e.rounds[i].SenderBasis = basis
	e.prepared++
	return nil
}

// Measure measures every prepared round not yet measured. It fails if any
// round has not been prepared.
func (e *Engine) Measure() error {
	for i := e.measured; i < len(e.rounds); i++ {
		if err := e.MeasureRound(i); err != nil {
			return err
		}
	}
	return nil
}

// MeasureRound draws the receiver's basis for round i and measures that
// round's qubit. Each round is measured exactly once, in index order, and only
// after it has been prepared.
func (e *Engine) MeasureRound(i int) error {
	if e.phase > Measuring {
		return fmt.Errorf("%w: measuring round %d while %v", ErrProtocolOrder, i, e.phase)
	}
	if i < 0 || i >= e.prepared {
		return fmt.Errorf("%w: measuring round %d before it was prepared", ErrProtocolOrder, i)
	}
	if i != e.measured {
		return fmt.Errorf("%w: measuring round %d, next round is %d", ErrProtocolOrder, i, e.measured)
	}
	e.phase = Measuring
	basis := e.gen.ReceiverBasis()
	q, err := e.receiver.Receive(i)
	if err != nil {
		return fmt.Errorf("receiving round %d: %w", i, err)
	}
	// The collapsed state is dropped along with q: measurement is destructive.
	out, _ := q.Measure(basis, e.measRand)
	e.rounds[i].ReceiverBasis = basis
	e.rounds[i].Measurement = out
	e.rounds[i].Measured = true
	e.measured++
	return nil
}

// Sift publicly compares bases and keeps the sender's bit for every round
// whose bases agree, in round order. Every round must have been measured.
func (e *Engine) Sift() (bitmap.Dense, error) {
	if e.phase != Measuring || e.measured != len(e.rounds) {
		return bitmap.Empty(), fmt.Errorf("%w: sifting while %v with %d of %d rounds measured",
			ErrProtocolOrder, e.phase, e.measured, len(e.rounds))
	}
	e.sifted, e.stats.SiftMismatches = sift(e.rounds)
	e.stats.RawBits = len(e.rounds)
	e.stats.SiftedBits = e.sifted.Size()
	e.phase = Sifting
	return e.sifted, nil
}

// Estimate estimates the QBER of the sifted key.
func (e *Engine) Estimate() (float64, error) {
	if e.phase != Sifting {
		return 0, fmt.Errorf("%w: estimating while %v", ErrProtocolOrder, e.phase)
	}
	est := e.est.Estimate(e.sifted)
	e.stats.QBER = est.QBER
	e.stats.SampledBits = est.Sampled
	e.stats.InjectedErrors = est.Errors
	e.phase = Estimating
	return est.QBER, nil
}

// Finalize derives the final key from the sifted key and ends the run.
func (e *Engine) Finalize() (Result, error) {
	if e.phase != Estimating {
		return Result{}, fmt.Errorf("%w: finalizing while %v", ErrProtocolOrder, e.phase)
	}
	key := Finalize(e.sifted, e.cfg.ReconciliationOverhead)
	e.stats.KeyBits = key.Size()
	e.phase = Finalized
	return Result{
		Key:       key,
		SiftedKey: e.sifted,
		Stats:     e.stats,
	}, nil
}

func sift(rounds []Round) (sifted bitmap.Dense, mismatches int) {
	var bits, mask bitmap.Dense
	for _, r := range rounds {
		bits.AppendBit(r.SenderBit == 1)
		match := r.SenderBasis == r.ReceiverBasis
		mask.AppendBit(match)
		if match && r.Measurement != r.SenderBit {
			mismatches++
		}
	}
	return bitmap.Select(bits, mask), mismatches
}
