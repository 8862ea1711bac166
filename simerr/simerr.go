// Package simerr defines the fatal error taxonomy for coherence
// violations. All kinds are fatal to the simulation; there is no
// partial retry.
package simerr

import "fmt"

// Kind classifies a fatal coherence error.
type Kind string

const (
	// ConfigInvalid marks a rejected configuration value.
	ConfigInvalid Kind = "ConfigInvalid"
	// InvariantViolated marks a broken state or inclusion invariant.
	InvariantViolated Kind = "InvariantViolated"
	// DataLoss marks a dropped Modified block with no sink.
	DataLoss Kind = "DataLoss"
	// ProtocolMismatch marks an unexpected message type or state.
	ProtocolMismatch Kind = "ProtocolMismatch"
	// AssertionFailed marks an internal consistency check failure.
	AssertionFailed Kind = "AssertionFailed"
)

// Error is a fatal, typed coherence error. It carries the address and
// state that triggered it so the aborting simulator can report exactly
// the predicate that failed.
type Error struct {
	Kind    Kind
	Addr    uint64
	State   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: addr=0x%x state=%s: %s", e.Kind, e.Addr, e.State, e.Message)
}

// New constructs a typed fatal error.
func New(kind Kind, a uint64, state, message string) *Error {
	return &Error{Kind: kind, Addr: a, State: state, Message: message}
}
