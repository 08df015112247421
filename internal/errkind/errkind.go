// Package errkind classifies release pipeline failures with structured error
// codes. Codes are string-based for debuggability and stable log output, and
// wrapped errors remain checkable with errors.Is/errors.As.
package errkind

import (
	"errors"
	"fmt"
)

// Code represents a specific failure class in the release pipeline.
type Code string

const (
	// CodeInvalidInput indicates the operator-provided input is invalid
	// (for example an unknown bump kind).
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodePreconditionFailed indicates the world was not in the state a
	// step requires before it mutates anything (no draft release found,
	// tag already exists).
	CodePreconditionFailed Code = "PRECONDITION_FAILED"

	// CodeRemoteFailure indicates a transport or authentication failure
	// against the source-control host, release host, or package registry.
	CodeRemoteFailure Code = "REMOTE_FAILURE"

	// CodeConsistencyFailure indicates two views of the same value
	// disagree (built artifact version mismatches the resolved version).
	CodeConsistencyFailure Code = "CONSISTENCY_FAILURE"

	// CodeStateConflict indicates the remote rejected a mutation because
	// its state diverged (push rejected, duplicate registry version,
	// duplicate asset).
	CodeStateConflict Code = "STATE_CONFLICT"

	// CodeUnknown indicates an unclassified failure.
	CodeUnknown Code = "UNKNOWN"
)

// String returns the string representation of the Code.
func (c Code) String() string {
	return string(c)
}

// codedError pairs an underlying error with its failure class.
type codedError struct {
	code Code
	err  error
}

func (e *codedError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.err.Error())
}

func (e *codedError) Unwrap() error {
	return e.err
}

// Classify tags err with the given code. The original error remains
// reachable through errors.Is/errors.As. Classifying nil returns nil.
func Classify(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// Classifyf tags a new formatted error with the given code.
func Classifyf(code Code, format string, args ...any) error {
	return &codedError{code: code, err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the failure class from err. It walks the wrap chain and
// returns the outermost classification, or CodeUnknown if none is present.
func CodeOf(err error) Code {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return CodeUnknown
}
