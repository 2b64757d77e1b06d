// Package apperr is the error taxonomy every request path reports in.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodeInvalidChoice    Code = "INVALID_CHOICE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeStateConflict    Code = "STATE_CONFLICT"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus maps a code to the status the polling API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeInvalidChoice, CodeStateConflict:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code    Code
	Message string // safe to show to clients
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks by code.
var (
	Validation    = New(CodeValidation, "validation failed")
	InvalidChoice = New(CodeInvalidChoice, "invalid choice")
	NotFound      = New(CodeNotFound, "not found")
	StateConflict = New(CodeStateConflict, "invalid state")
)

// From returns err as an *Error, classifying anything unknown as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, "internal error", err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}
