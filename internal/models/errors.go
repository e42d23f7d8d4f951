package models

import (
	"errors"
	"fmt"
)

type ErrorKind uint8

const (
	// KindValidation marks malformed input: bad shape, out of range, invalid date.
	KindValidation ErrorKind = iota + 1
	// KindState marks a missing prerequisite the user can fix: no timezone, expired flow.
	KindState
	// KindNotFound marks a lookup of something that does not exist.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a user-facing rejection. Message is safe to show to the caller.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewStateError(message string) *Error {
	return &Error{Kind: KindState, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// IsKind reports whether err carries a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// QuotaError rejects a batch that would exceed the user's remaining allowance.
type QuotaError struct {
	Remaining int
	Requested int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("event limit reached: %d more events allowed, %d requested", e.Remaining, e.Requested)
}

var (
	ErrNoTimezone      = NewStateError("set your timezone first")
	ErrFlowExpired     = NewStateError("this timezone conversion request expired, please try again")
	ErrInvalidDateTime = NewValidationError("enter a valid date as MM-DD-YYYY and a valid time as HH:MM (24-hour)")
	ErrInvalidTimezone = NewValidationError("invalid time zone")
	ErrEventNotFound   = NewNotFoundError("event does not exist or has already ended")
	ErrPresetExists    = NewStateError("a preset with this tag already exists")
)
