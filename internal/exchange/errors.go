package exchange

import (
	"errors"
	"fmt"
)

// Error is an outcome of an exchange operation that the caller reports back
// to whoever asked for it.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Participant is the participant the error concerns, if any.
	Participant string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes exchange errors.
type ErrorCode string

const (
	// ErrCodePermissionDenied means a non-operator tried an operator-only action.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeInsufficientParticipants means fewer than two profiles are registered.
	ErrCodeInsufficientParticipants ErrorCode = "INSUFFICIENT_PARTICIPANTS"

	// ErrCodeNotEligible means the sender has no profile or no assignment yet.
	ErrCodeNotEligible ErrorCode = "NOT_ELIGIBLE"

	// ErrCodeUnreachable means the recipient does not accept private messages.
	ErrCodeUnreachable ErrorCode = "DELIVERY_UNREACHABLE"

	// ErrCodeTransportFailure covers every other delivery or persistence error.
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"

	// ErrCodeInProgress means another run has not finished yet.
	ErrCodeInProgress ErrorCode = "EXCHANGE_IN_PROGRESS"

	// ErrCodeInvalidProfile means a submitted profile is missing required fields.
	ErrCodeInvalidProfile ErrorCode = "INVALID_PROFILE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Participant != "" {
		msg += fmt.Sprintf(" (participant=%s)", e.Participant)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsPermissionDenied reports whether err is a permission error.
func IsPermissionDenied(err error) bool {
	return CodeOf(err) == ErrCodePermissionDenied
}

// IsInsufficientParticipants reports whether err means too few participants.
func IsInsufficientParticipants(err error) bool {
	return CodeOf(err) == ErrCodeInsufficientParticipants
}

// IsNotEligible reports whether err means the sender cannot forward yet.
func IsNotEligible(err error) bool {
	return CodeOf(err) == ErrCodeNotEligible
}

// IsUnreachable reports whether err means the recipient cannot be messaged.
func IsUnreachable(err error) bool {
	return CodeOf(err) == ErrCodeUnreachable
}

// IsTransportFailure reports whether err is a delivery or persistence failure.
func IsTransportFailure(err error) bool {
	return CodeOf(err) == ErrCodeTransportFailure
}

// IsInProgress reports whether err means another run is in flight.
func IsInProgress(err error) bool {
	return CodeOf(err) == ErrCodeInProgress
}

// IsInvalidProfile reports whether err means the profile was rejected.
func IsInvalidProfile(err error) bool {
	return CodeOf(err) == ErrCodeInvalidProfile
}

func newPermissionError(operatorID string) *Error {
	return &Error{
		Code:        ErrCodePermissionDenied,
		Message:     "only the operator can start the exchange",
		Participant: operatorID,
	}
}

func newInsufficientError(n int) *Error {
	return &Error{
		Code:    ErrCodeInsufficientParticipants,
		Message: fmt.Sprintf("need at least 2 participants, have %d", n),
	}
}

func newTransportError(message, participant string, err error) *Error {
	return &Error{
		Code:        ErrCodeTransportFailure,
		Message:     message,
		Participant: participant,
		Err:         err,
	}
}
