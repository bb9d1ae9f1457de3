package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a use case wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrTaskNotFound      = errors.New("task not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAlreadyClockedIn  = errors.New("already clocked in")
	ErrNotClockedIn      = errors.New("not clocked in")
	ErrClockSkew         = errors.New("clock error")
)

// Validation reasons. Messages are safe to show to the caller verbatim.
var (
	ErrNoIdentity         = fmt.Errorf("%w: caller identity is required", ErrValidation)
	ErrEmptyTitle         = fmt.Errorf("%w: title is required", ErrValidation)
	ErrInvalidEstimate    = fmt.Errorf("%w: estimated_minutes must be positive", ErrValidation)
	ErrNegativePrepay     = fmt.Errorf("%w: prepay_amount_cents must not be negative", ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: category must be \"task\" or \"companion\"", ErrValidation)
	ErrScheduleIncoherent = fmt.Errorf("%w: exactly one of is_immediate and scheduled_at must be set", ErrValidation)
	ErrNegativeMinutes    = fmt.Errorf("%w: minutes must not be negative", ErrValidation)
	ErrNegativeRate       = fmt.Errorf("%w: rate must not be negative", ErrValidation)
	ErrNoFieldsToUpdate   = fmt.Errorf("%w: no fields to update", ErrValidation)
)

// Transition reasons.
var (
	ErrTaskCompleted = fmt.Errorf("%w: task is completed", ErrInvalidTransition)
	ErrNotAssigned   = fmt.Errorf("%w: task has no assignee yet", ErrInvalidTransition)
	ErrSessionOpen   = fmt.Errorf("%w: a work session is still open, clock out first", ErrInvalidTransition)
	ErrNoWorkLogged  = fmt.Errorf("%w: no work logged, log time first", ErrInvalidTransition)
)

// Authorization and race reasons.
var (
	ErrNotRequester    = fmt.Errorf("%w: only the requester may do this", ErrForbidden)
	ErrNotAssignee     = fmt.Errorf("%w: only the assignee may do this", ErrForbidden)
	ErrNotParticipant  = fmt.Errorf("%w: only the requester or the assignee may do this", ErrForbidden)
	ErrOwnTask         = fmt.Errorf("%w: cannot accept your own task", ErrForbidden)
	ErrAlreadyAssigned = fmt.Errorf("%w: task was already taken", ErrConflict)
)

// Infrastructure errors.
var (
	ErrNotInitialized = errors.New("hora store not initialized (run 'hora init' first)")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrConfigExists   = errors.New("config file already exists")
)

// Kind returns the error kind name for err, or "internal" if err wraps none.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTaskNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrAlreadyClockedIn):
		return "already_clocked_in"
	case errors.Is(err, ErrNotClockedIn):
		return "not_clocked_in"
	case errors.Is(err, ErrClockSkew):
		return "clock_error"
	default:
		return "internal"
	}
}
