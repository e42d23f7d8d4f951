package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(ErrNoTimezone, KindState))
	assert.True(t, IsKind(ErrInvalidDateTime, KindValidation))
	assert.True(t, IsKind(ErrEventNotFound, KindNotFound))
	assert.False(t, IsKind(ErrEventNotFound, KindState))
	assert.False(t, IsKind(errors.New("plain"), KindValidation))
}

func TestIsKind_Wrapped(t *testing.T) {
	err := fmt.Errorf("import: %w", NewValidationError("bad record"))
	assert.True(t, IsKind(err, KindValidation))
}

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("parse failure")
	err := &Error{Kind: KindValidation, Message: "bad input", Cause: cause}

	assert.Equal(t, "bad input: parse failure", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad input", NewValidationError("bad input").Error())
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "state", KindState.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}

func TestQuotaError(t *testing.T) {
	var err error = &QuotaError{Remaining: 2, Requested: 5}

	var qe *QuotaError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &qe))
	assert.Equal(t, 2, qe.Remaining)
	assert.Equal(t, "event limit reached: 2 more events allowed, 5 requested", err.Error())
}
