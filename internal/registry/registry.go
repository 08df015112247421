// Package registry publishes built artifacts to a package registry over the
// legacy authenticated multipart upload endpoint. Uploads are non-idempotent
// on the registry side: a version that was ever uploaded cannot be uploaded
// again, so a duplicate is fatal rather than retryable.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/aviadlevy/releasekit/internal/artifact"
)

// ErrDuplicateVersion is returned when the registry already holds a file for
// this version. Fatal; registries do not allow re-uploading a version.
var ErrDuplicateVersion = errors.New("version already exists in registry")

// ErrAuthFailed is returned when the registry rejects the credentials.
var ErrAuthFailed = errors.New("registry authentication failed")

// ErrInvalidOptions is returned when publisher options are malformed.
var ErrInvalidOptions = errors.New("invalid publisher options")

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

// Publisher pushes an artifact set to a package registry.
type Publisher interface {
	// Upload publishes the set's files in order, stopping at the first
	// failure. Returns ErrDuplicateVersion if the registry already holds
	// any of them and ErrAuthFailed on rejected credentials.
	Upload(ctx context.Context, set *artifact.Set) error
}
