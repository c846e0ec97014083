// Package engine holds the pure procurement rules: status transitions,
// submission scoring, IPC arithmetic, document compliance and SLA
// classification. Nothing in this package touches storage or the clock —
// callers pass records in and get derived results or typed failures back.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition marks a status change not present in the
	// transition table for the record's kind.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrTerminalState marks a transition attempted out of a state that
	// accepts no further transitions.
	ErrTerminalState = errors.New("record is in a terminal state")

	// ErrInvalidWeights is returned when evaluation weights do not sum to 100.
	ErrInvalidWeights = errors.New("evaluation weights must sum to 100")

	// ErrAlreadyAwarded is returned when awarding an RFQ that already has
	// an awarded submission.
	ErrAlreadyAwarded = errors.New("rfq already has an awarded submission")

	// ErrNotAwardable covers the remaining award preconditions: RFQ not
	// open for evaluation, or the submission disqualified or missing.
	ErrNotAwardable = errors.New("submission cannot be awarded")

	// ErrInvalidDeduction rejects negative deductions before any arithmetic.
	ErrInvalidDeduction = errors.New("deductions must be zero or positive")

	// ErrInvalidPeriod rejects an IPC whose period end precedes its start.
	ErrInvalidPeriod = errors.New("period start must not be after period end")

	// ErrMissingTechnicalScore is returned when a compliant submission is
	// evaluated before a reviewer assigned its technical score.
	ErrMissingTechnicalScore = errors.New("submission has no technical score")
)

// TransitionError carries the current and requested status for diagnostics.
type TransitionError struct {
	Kind     string
	From     string
	To       string
	Terminal bool
}

func (e *TransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("%s: %s is terminal, cannot move to %s", e.Kind, e.From, e.To)
	}
	return fmt.Sprintf("%s: cannot move from %s to %s", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.Terminal {
		return ErrTerminalState
	}
	return ErrInvalidTransition
}
