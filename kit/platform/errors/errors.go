package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Platform error codes. Code is the machine-readable half of an Error; HTTP
// transports map it to a status, automated callers branch on it.
const (
	EInternal     = "internal error"
	ENotFound     = "not found"
	EConflict     = "conflict"    // action cannot be performed
	EInvalid      = "invalid"     // validation failed
	EUnavailable  = "unavailable" // backend cannot be reached
	EForbidden    = "forbidden"
	EUnauthorized = "unauthorized"
)

// Error is the platform error.
//
// Code targets automated handlers so recovery can occur. Msg helps an
// operator diagnose the problem. Op and Err chain errors into a logical
// stack trace.
//
//	&Error{Code: EInvalid, Msg: "trusted topic mismatch"}
//	&Error{Code: EInternal, Op: "storage.Upload", Err: err}
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// Error implements the error interface by joining Msg and the wrapped error.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		var b strings.Builder
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
		return b.String()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("<%s>", e.Code)
}

// Unwrap exposes the wrapped error to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the first error in the chain that carries
// one; non-platform errors report EInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	e, ok := err.(*Error)
	if !ok {
		return EInternal
	}
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Err != nil {
		return ErrorCode(e.Err)
	}
	return EInternal
}

// ErrorOp returns the op of the error, if available.
func ErrorOp(err error) string {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return ""
	}
	if e.Op != "" {
		return e.Op
	}
	if e.Err != nil {
		return ErrorOp(e.Err)
	}
	return ""
}

// ErrorMessage returns the human-readable message of the error, if
// available; otherwise a generic message that leaks nothing internal.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	e, ok := err.(*Error)
	if !ok {
		return "an internal error has occurred"
	}
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return ErrorMessage(e.Err)
	}
	return "an internal error has occurred"
}

type errEncode struct {
	Code string      `json:"code"`
	Msg  string      `json:"message,omitempty"`
	Op   string      `json:"op,omitempty"`
	Err  interface{} `json:"error,omitempty"`
}

// MarshalJSON recursively marshals the stack of wrapped errors.
func (e *Error) MarshalJSON() ([]byte, error) {
	ee := errEncode{
		Code: e.Code,
		Msg:  e.Msg,
		Op:   e.Op,
	}
	if e.Err != nil {
		if inner, ok := e.Err.(*Error); ok {
			ee.Err = inner
		} else {
			ee.Err = e.Err.Error()
		}
	}
	return json.Marshal(ee)
}

// HTTPErrorHandler writes err to w in the transport's error format.
type HTTPErrorHandler interface {
	HandleHTTPError(ctx context.Context, err error, w http.ResponseWriter)
}
