package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes shared by the stores, services and HTTP layer.
const (
	EInternal     = "internal error"
	ENotFound     = "not found"
	EConflict     = "conflict"     // uniqueness or referential integrity
	EInvalid      = "invalid"      // validation failed
	EUnauthorized = "unauthorized" // bad credentials or token
	ETooLarge     = "request too large"
)

// Error is the application error type.
//
// Code is matched by the HTTP layer to pick a status, Msg is shown to the
// client, and Op/Err chain errors into a logical stack for the logs.
//
//	&Error{Code: ENotFound, Msg: "tenant not found", Op: "store.FindTenantByID"}
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// NewError returns an instance of an error.
func NewError(options ...func(*Error)) *Error {
	err := &Error{}
	for _, o := range options {
		o(err)
	}
	return err
}

// WithErrorErr sets the err on the error.
func WithErrorErr(err error) func(*Error) {
	return func(e *Error) {
		e.Err = err
	}
}

// WithErrorCode sets the code on the error.
func WithErrorCode(code string) func(*Error) {
	return func(e *Error) {
		e.Code = code
	}
}

// WithErrorMsg sets the message on the error.
func WithErrorMsg(msg string) func(*Error) {
	return func(e *Error) {
		e.Msg = msg
	}
}

// WithErrorOp sets the operation on the error.
func WithErrorOp(op string) func(*Error) {
	return func(e *Error) {
		e.Op = op
	}
}

// Invalid is shorthand for a validation failure.
func Invalid(op, format string, args ...interface{}) *Error {
	return &Error{Code: EInvalid, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict is shorthand for a uniqueness or integrity failure.
func Conflict(op, format string, args ...interface{}) *Error {
	return &Error{Code: EConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound is shorthand for a missing entity.
func NotFound(op, format string, args ...interface{}) *Error {
	return &Error{Code: ENotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized is shorthand for an authentication failure.
func Unauthorized(op, msg string) *Error {
	return &Error{Code: EUnauthorized, Op: op, Msg: msg}
}

// Internal wraps an unexpected error.
func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Err: err}
}

// Error implements the error interface by writing out the recursive messages.
func (e *Error) Error() string {
	if e.Msg != "" && e.Err != nil {
		var b strings.Builder
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
		return b.String()
	} else if e.Msg != "" {
		return e.Msg
	} else if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("<%s>", e.Code)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the first *Error in the chain that has one,
// EInternal otherwise.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	for errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return EInternal
}

// ErrorMessage returns the client-facing message of err. Internal errors
// are masked.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if ErrorCode(err) == EInternal {
		return EInternal
	}

	var e *Error
	for errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return err.Error()
}

// HTTPStatus maps an error code to an HTTP status code.
func HTTPStatus(code string) int {
	switch code {
	case EInvalid, EConflict:
		return http.StatusBadRequest
	case ENotFound:
		return http.StatusNotFound
	case EUnauthorized:
		return http.StatusUnauthorized
	case ETooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
