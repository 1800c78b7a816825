// Package apperror defines the closed set of error codes the CLI and HTTP
// surfaces report in their JSON error envelopes, as typed sentinel-wrapping
// errors so callers can recover a code from any internal error via
// errors.As instead of string-matching messages.
package apperror

import "fmt"

// Code is one of the closed set of error codes surfaced to callers.
type Code string

const (
	CodeInvalidArgs       Code = "INVALID_ARGS"
	CodeFileNotFound      Code = "FILE_NOT_FOUND"
	CodeInvalidFixture    Code = "INVALID_FIXTURE"
	CodeInvalidTx         Code = "INVALID_TX"
	CodeBlockParseError   Code = "BLOCK_PARSE_ERROR"
	CodeBlockUndoMismatch Code = "BLOCK_UNDO_MISMATCH"
	CodeInvalidMerkleRoot Code = "INVALID_MERKLE_ROOT"
	CodeIOError           Code = "IO_ERROR"
)

// Error wraps an underlying error with one of the closed error codes.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with the given code and message, wrapping err (which
// may be nil).
func New(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap is New with the underlying error's message reused verbatim.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}
