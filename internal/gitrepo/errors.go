// Package gitrepo provides sentinel errors for repository operations.
// All errors can be checked using errors.Is() for programmatic handling.
package gitrepo

import (
	"errors"
	"fmt"
)

// ErrPushRejected is returned when the remote has diverged and the push is
// not a fast-forward. No automatic merge or rebase is attempted; this is
// fatal and requires operator intervention.
var ErrPushRejected = errors.New("push rejected: remote has diverged")

// ErrTagExists is returned when attempting to create a tag that already exists.
var ErrTagExists = errors.New("tag already exists")

// ErrEmptyCommit is returned when a commit is attempted with no staged changes.
var ErrEmptyCommit = errors.New("no changes staged for commit")

// ErrAuthRequired is returned when the remote requires authentication but
// none was configured.
var ErrAuthRequired = errors.New("authentication required")

// ErrInvalidOptions is returned when repository options are malformed.
var ErrInvalidOptions = errors.New("invalid repository options")

// WrapError wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while
// preserving the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
