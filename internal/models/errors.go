package models

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. Every failure mode a caller can act on has its own
// error value or type; callers discriminate with errors.Is / errors.As and
// never parse message text.
var (
	// ErrIdeaNotFound is returned by plain reads for an unknown idea id.
	ErrIdeaNotFound = errors.New("idea not found")

	// ErrNotVotable means the idea is missing or no longer pending.
	ErrNotVotable = errors.New("idea is not open for voting")

	// ErrAlreadyVoted means the voter already holds a ledger entry for the
	// idea, including races resolved by the storage uniqueness constraint.
	ErrAlreadyVoted = errors.New("user has already voted on this idea")

	// ErrTooManySubmissions means the author hit the submission rate limit.
	ErrTooManySubmissions = errors.New("too many submissions in the last hour")

	// ErrInvalidTransition means the requested lifecycle transition is not
	// allowed from the idea's current status.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrAlreadyTransformed means a project has already been derived from
	// the idea.
	ErrAlreadyTransformed = errors.New("idea has already been transformed into a project")

	// ErrForbidden means the actor lacks the privilege for the operation.
	ErrForbidden = errors.New("operation requires admin privileges")

	// ErrStorageUnavailable wraps transient infrastructure failures. It is
	// the only retryable class; retries are the caller's responsibility.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports malformed or out-of-bounds input. It is returned
// before any write is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QuotaExceededError means the vote would push the voter past the daily
// ceiling. Remaining is the weight the voter can still cast today.
type QuotaExceededError struct {
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily vote quota exceeded, %d remaining", e.Remaining)
}
