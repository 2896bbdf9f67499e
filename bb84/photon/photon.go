// Package photon provides the quantum channel that carries prepared qubits
// from a BB84 sender to a receiver.
package photon

import (
	"errors"

	"github.com/alan-christopher/bb84sim/bb84/qubit"
)

var (
	// ErrNotSent is returned when a round is received before it was sent.
	ErrNotSent = errors.New("qubit not yet sent")
	// ErrAlreadySent is returned when a round is sent twice.
	ErrAlreadySent = errors.New("qubit already sent")
	// ErrAlreadyReceived is returned when a round is received twice.
	ErrAlreadyReceived = errors.New("qubit already received")
	// ErrOutOfRange is returned for rounds outside the channel's capacity.
	ErrOutOfRange = errors.New("round out of range")
)

// A Sender places prepared qubits on the channel, one per round.
type Sender interface {
	// Send transmits q as the qubit for the given round.
	Send(round int, q qubit.State) error
}

// A Receiver takes qubits off the channel. Receiving is destructive: each
// round's qubit can be received exactly once.
type Receiver interface {
	// Receive returns the qubit sent for the given round.
	Receive(round int) (qubit.State, error)
}
