// Package errors defines the sentinel errors shared across the server and an
// AppError wrapper that carries a JSON-RPC error code for the protocol layer.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrExperienceNotFound = errors.New("experience not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrInternal           = errors.New("internal error")
)

// JSON-RPC 2.0 error codes used by the protocol front end.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

type AppError struct {
	Err     error
	Message string
	Code    int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, code int, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
		Code:    code,
	}
}

func Newf(sentinel error, code int, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// RPCCode maps an error to the JSON-RPC code the protocol layer should report.
func RPCCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidParams
	case errors.Is(err, ErrUnknownTool):
		return CodeMethodNotFound
	default:
		return CodeInternalError
	}
}
