package domain

import "errors"

var (
	// ErrInvariantViolation is returned when an edit would leave a circuit
	// with fewer than MinCircuitVertices vertices.
	ErrInvariantViolation = errors.New("circuit must contain at least 2 points")

	// ErrNotFound is returned for ids or vertex indexes absent from the
	// current collection. Editing code treats it as a no-op.
	ErrNotFound = errors.New("not found")

	// ErrModeBusy is returned when a tool is activated while another one
	// is still active.
	ErrModeBusy = errors.New("another edit tool is active")
)

// MessageCircuitMinPoints is the user-facing text shown for ErrInvariantViolation.
const MessageCircuitMinPoints = "circuit.circuitMustContainAtLeast2Points"
