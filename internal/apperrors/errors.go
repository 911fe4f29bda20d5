package apperrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error code. Every public registry and
// resolver operation reports failure through one of these rather than an
// opaque error string, so callers can branch on outcome.
type Code string

const (
	CodeWalletNotConnected  Code = "wallet_not_connected"
	CodeConnectionFailed    Code = "connection_failed"
	CodeNotAuthorized       Code = "not_authorized"
	CodeEventNotFound       Code = "event_not_found"
	CodeEventExpired        Code = "event_expired"
	CodeEventInactive       Code = "event_inactive"
	CodeAccessDenied        Code = "access_denied"
	CodeDecodeError         Code = "decode_error"
	CodeTransactionFailed   Code = "transaction_failed"
	CodeConfirmationTimeout Code = "confirmation_timeout"
	CodeUserCancelled       Code = "user_cancelled"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodePartialFailure      Code = "partial_failure"
	CodeInvalidArgument     Code = "invalid_argument"
)

// Transaction stages for CodeTransactionFailed.
const (
	StageBuild   = "build"
	StageSign    = "sign"
	StageSubmit  = "submit"
	StageConfirm = "confirm"
)

type Error struct {
	Code    Code
	Message string
	// Field names the state key that failed to decode (CodeDecodeError).
	Field string
	// Stage names the transaction phase that failed (CodeTransactionFailed).
	Stage string
	// Details carries structured context for the caller (e.g. access window
	// bounds on a time-based denial).
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	case e.Stage != "":
		return fmt.Sprintf("%s: %s (stage %s)", e.Code, e.Message, e.Stage)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on a bare code: errors.Is(err, &Error{Code: CodeEventNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

func Decode(field string, format string, args ...any) *Error {
	return &Error{Code: CodeDecodeError, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Transaction(stage string, err error, format string, args ...any) *Error {
	return &Error{Code: CodeTransactionFailed, Stage: stage, Message: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// CodeOf extracts the code from an error chain, or empty if the error is not
// an *Error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
