package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the actor is not permitted to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates that no valid principal accompanied the request.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict indicates a concurrent modification (version mismatch).
// Callers should re-fetch the resource and retry.
var ErrConflict = errors.New("concurrent modification detected")

// ErrInvalidTransition indicates that an action is not legal from the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrNotificationDelivery is logged when a notification sink fails. It is never
// returned to the caller of the transition that triggered the notification.
var ErrNotificationDelivery = errors.New("notification delivery failed")

// TransitionError carries the current state and the attempted action.
// errors.Is(err, ErrInvalidTransition) reports true for it.
type TransitionError struct {
	Kind   string
	Status string
	Action string
}

func (e *TransitionError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: cannot %s a %s entity in status %q", ErrInvalidTransition, e.Action, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: cannot %s from status %q", ErrInvalidTransition, e.Action, e.Status)
}

// Is lets errors.Is match the sentinel.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewTransitionError builds a TransitionError.
func NewTransitionError(kind, status, action string) error {
	return &TransitionError{Kind: kind, Status: status, Action: action}
}
