package photon

import (
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84/qubit"
)

// NewSimulatedChannel creates a pair of (Sender, Receiver) structs simulating
// a quantum channel with room for rounds qubits. The channel is an in-process
// arena of independent per-round states; nothing is shared across channels.
func NewSimulatedChannel(rounds int) (*SimulatedSender, *SimulatedReceiver) {
	l := &link{slots: make([]slot, rounds)}
	return &SimulatedSender{l}, &SimulatedReceiver{l}
}

type slot struct {
	state    qubit.State
	sent     bool
	received bool
}

type link struct {
	slots []slot
}

func (l *link) slot(round int) (*slot, error) {
	if round < 0 || round >= len(l.slots) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, round, len(l.slots))
	}
	return &l.slots[round], nil
}

type SimulatedSender struct {
	l *link
}

type SimulatedReceiver struct {
	l *link
}

func (ss *SimulatedSender) Send(round int, q qubit.State) error {
	s, err := ss.l.slot(round)
	if err != nil {
		return err
	}
	if s.sent {
		return fmt.Errorf("round %d: %w", round, ErrAlreadySent)
	}
	s.state, s.sent = q, true
	return nil
}

func (sr *SimulatedReceiver) Receive(round int) (qubit.State, error) {
	s, err := sr.l.slot(round)
	if err != nil {
		return qubit.State{}, err
	}
	if !s.sent {
		return qubit.State{}, fmt.Errorf("round %d: %w", round, ErrNotSent)
	}
	if s.received {
		return qubit.State{}, fmt.Errorf("round %d: %w", round, ErrAlreadyReceived)
	}
	q := s.state
	s.received = true
	s.state = qubit.State{}
	return q, nil
}

// InFlight returns the number of qubits sent but not yet received.
func (sr *SimulatedReceiver) InFlight() int {
	n := 0
	for _, s := range sr.l.slots {
		if s.sent && !s.received {
			n++
		}
	}
	return n
}
