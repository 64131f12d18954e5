// Package qerr defines the error taxonomy shared by the query compiler,
// the result materializer and the engine client.
//
// Errors are raised synchronously and never retried by the core. Callers
// classify them with the Is* helpers, which use errors.As so wrapped errors
// still match.
package qerr

import (
	"errors"
	"fmt"
)

// Code categorizes an Error.
type Code string

const (
	// CodeInvalidArgument marks a malformed condition construction (null in
	// an isin set, over-long member path, empty set). Raised at construction.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeUnsupportedCondition marks a valid condition that cannot be
	// compiled to query text. Raised only by the compiler.
	CodeUnsupportedCondition Code = "UNSUPPORTED_CONDITION"

	// CodeSchemaLookupFailure marks an unresolved measure, level or
	// hierarchy name.
	CodeSchemaLookupFailure Code = "SCHEMA_LOOKUP_FAILURE"

	// CodeMalformedCellset marks an engine response that does not match the
	// expected cellset shape.
	CodeMalformedCellset Code = "MALFORMED_CELLSET"

	// CodeEngineUnavailable marks a transport or engine-side failure.
	CodeEngineUnavailable Code = "ENGINE_UNAVAILABLE"
)

// Error is a classified query error.
type Error struct {
	Code    Code
	Message string

	// Details carries structured context (names, ordinals) for diagnostics.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With returns a copy of e with an extra detail entry.
func (e *Error) With(key, value string) *Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	cp := *e
	cp.Details = details
	return &cp
}

// InvalidArgument creates a CodeInvalidArgument error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedCondition creates a CodeUnsupportedCondition error.
func UnsupportedCondition(format string, args ...any) *Error {
	return &Error{Code: CodeUnsupportedCondition, Message: fmt.Sprintf(format, args...)}
}

// SchemaLookup creates a CodeSchemaLookupFailure error.
func SchemaLookup(format string, args ...any) *Error {
	return &Error{Code: CodeSchemaLookupFailure, Message: fmt.Sprintf(format, args...)}
}

// MalformedCellset creates a CodeMalformedCellset error.
func MalformedCellset(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedCellset, Message: fmt.Sprintf(format, args...)}
}

// EngineUnavailable wraps a transport failure.
func EngineUnavailable(err error, format string, args ...any) *Error {
	return &Error{Code: CodeEngineUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsInvalidArgument reports whether err is a CodeInvalidArgument error.
func IsInvalidArgument(err error) bool { return CodeOf(err) == CodeInvalidArgument }

// IsUnsupportedCondition reports whether err is a CodeUnsupportedCondition error.
func IsUnsupportedCondition(err error) bool { return CodeOf(err) == CodeUnsupportedCondition }

// IsSchemaLookupFailure reports whether err is a CodeSchemaLookupFailure error.
func IsSchemaLookupFailure(err error) bool { return CodeOf(err) == CodeSchemaLookupFailure }

// IsMalformedCellset reports whether err is a CodeMalformedCellset error.
func IsMalformedCellset(err error) bool { return CodeOf(err) == CodeMalformedCellset }

// IsEngineUnavailable reports whether err is a CodeEngineUnavailable error.
func IsEngineUnavailable(err error) bool { return CodeOf(err) == CodeEngineUnavailable }

// IsCallerError reports whether err is a query-construction mistake the
// caller has to fix, as opposed to an engine/version incompatibility.
func IsCallerError(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeUnsupportedCondition:
		return true
	default:
		return false
	}
}
