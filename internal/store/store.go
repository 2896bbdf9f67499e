// Package store persists the history of simulation runs.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Store is the persistence interface for run history.
// Implementations must be safe for concurrent use.
type Store interface {
	SaveRun(ctx context.Context, r *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	// ListRuns returns the most recent runs first, at most limit of them. A
	// non-positive limit lists every run.
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
	DeleteRun(ctx context.Context, id string) error

	// Close releases database resources.
	Close() error
}

// RunRecord is the persistent record of one simulation run.
type RunRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Parameters.
	Seed                   uint64  `json:"seed"`
	NumQubits              int     `json:"num_qubits"`
	SampleSize             int     `json:"sample_size"`
	ErrorProbability       float64 `json:"error_probability"`
	ReconciliationOverhead int     `json:"reconciliation_overhead"`

	// Outcome.
	RawBits    int     `json:"raw_bits"`
	SiftedBits int     `json:"sifted_bits"`
	QBER       float64 `json:"qber"`
	KeyBits    int     `json:"key_bits"`
	// Key is omitted when the key was written sealed.
	Key string `json:"key,omitempty"`
}
