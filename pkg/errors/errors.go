// Package errors provides the unified error type and factory functions for
// smiles-algebra. The tokenizer, parser, algebra, build-script interpreter and
// the application layers all report failures as *AppError so callers can switch
// on a single typed code and, for syntax failures, a byte offset.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// NoOffset marks an error that is not tied to a position in the input.
const NoOffset = -1

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout smiles-algebra.
// It supports error wrapping so that errors.Is / errors.As / errors.Unwrap work
// across package boundaries.
//
// Usage:
//
//	return errors.NewAt(errors.ErrCodeUnclosedRing, 4, "ring 1 is never closed")
//	return errors.Wrap(err, errors.ErrCodeScriptCall, "attach failed")
type AppError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Detail carries supplementary context such as the offending token.
	Detail string

	// Offset is the byte offset into the input the error refers to, or NoOffset.
	Offset int

	// Cause is the underlying error, if any.
	Cause error

	// Stack is the call stack captured at creation. It is not part of Error().
	Stack string
}

// Error implements the standard error interface.
// Format: "[<code>] <message> (offset <n>): <detail>"; the offset and detail
// segments are omitted when absent.
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Code.String())
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " (offset %d)", e.Offset)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builder methods
// ─────────────────────────────────────────────────────────────────────────────

// WithDetail returns a shallow copy of the receiver with Detail set.
// It is safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// WithOffset returns a shallow copy of the receiver pointing at offset.
func (e *AppError) WithOffset(offset int) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Offset = offset
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// NewAt constructs an AppError anchored at a byte offset of the input.
func NewAt(code ErrorCode, offset int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Offset:  offset,
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil so it can be used inline.
//
// When err is already an *AppError and code is CodeUnknown the original code and
// offset are preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	offset := NoOffset
	var ae *AppError
	if errors.As(err, &ae) {
		if code == CodeUnknown {
			code = ae.Code
		}
		offset = ae.Offset
	}
	return &AppError{
		Code:    code,
		Message: message,
		Offset:  offset,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
//
//	if errors.IsCode(err, errors.ErrCodeUnclosedRing) { ... }
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether any error in err's chain carries CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// GetCode extracts the ErrorCode from the first *AppError found in err's chain.
// If no *AppError is present, CodeUnknown is returned.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// GetOffset returns the input offset carried by the first *AppError in err's
// chain that has one.
func GetOffset(err error) (int, bool) {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			if ae.Offset >= 0 {
				return ae.Offset, true
			}
			err = ae.Cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return NoOffset, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factory functions
// ─────────────────────────────────────────────────────────────────────────────

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidParam,
		Message: message,
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// Internal constructs a CodeInternal AppError.
func Internal(message string) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// InvalidPosition constructs an ErrCodeInvalidPosition AppError.
func InvalidPosition(position, limit int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidPosition,
		Message: fmt.Sprintf("position %d outside 1..%d", position, limit),
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// InvalidAST constructs an ErrCodeInvalidAST AppError.
func InvalidAST(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidAST,
		Message: message,
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}

// TooManyRings constructs an ErrCodeTooManyRings AppError.
func TooManyRings() *AppError {
	return &AppError{
		Code:    ErrCodeTooManyRings,
		Message: "no ring number available in 1..99",
		Offset:  NoOffset,
		Stack:   captureStack(1),
	}
}
