package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	InvalidAmount        ErrorCode = "INVALID_AMOUNT"
	UnknownStaker        ErrorCode = "UNKNOWN_STAKER"
	InsufficientBalance  ErrorCode = "INSUFFICIENT_BALANCE"
	Unauthorized         ErrorCode = "UNAUTHORIZED"
	TransferFailed       ErrorCode = "TRANSFER_FAILED"
	DecodeFailure        ErrorCode = "DECODE_FAILURE"
	NotInitialized       ErrorCode = "NOT_INITIALIZED"
	AlreadyInitialized   ErrorCode = "ALREADY_INITIALIZED"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Error is the failure of a single request. Any operation returning an
// Error has left the ledger untouched.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return &Error{
		Err:        errors.New(msg),
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewValidationFailedError(err error) *Error {
	return NewError(http.StatusBadRequest, ValidationError, err)
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

// AsError extracts an *Error from err. Plain errors are reported as internal
// service errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return NewInternalServiceError(err)
}

// HasErrorCode reports whether err carries the given error code.
func HasErrorCode(err error, code ErrorCode) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.ErrorCode == code
}
