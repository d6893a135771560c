package workflow

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the engines. Handlers translate these into
// HTTP statuses; the engines themselves never touch the transport layer.
var (
	ErrNotFound          = errors.New("record not found")
	ErrForbidden         = errors.New("access denied")
	ErrDuplicateAccount  = errors.New("an account with the same number and bank already exists")
	ErrAlreadyInProgress = errors.New("a verification submission is already pending or approved")
	ErrAlreadyProcessed  = errors.New("submission has already been processed")
	ErrTicketClosed      = errors.New("ticket is closed and can no longer receive replies")
)

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
