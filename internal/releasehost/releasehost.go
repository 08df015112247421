// Package releasehost provides a gateway to the release host: the remote
// system that stores draft and published release records and their binary
// assets. The pipeline consumes the list, delete, create, and asset-upload
// operations behind the Host interface so tests can substitute an in-memory
// host for the real API.
package releasehost

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors that can be checked with errors.Is().

// ErrTagNotFound is returned when a release is created for a tag that is not
// yet visible upstream.
var ErrTagNotFound = errors.New("tag not found on release host")

// ErrDuplicateRelease is returned when a release already exists for the tag.
var ErrDuplicateRelease = errors.New("release already exists for tag")

// ErrReleaseNotFound is returned when operating on a release id that does
// not exist.
var ErrReleaseNotFound = errors.New("release not found")

// ErrAssetExists is returned when uploading an asset whose filename is
// already attached to the release. Asset lists are append-only and
// idempotent per filename.
var ErrAssetExists = errors.New("asset already exists on release")

// ErrUnauthorized is returned on authentication or permission failures.
var ErrUnauthorized = errors.New("release host rejected credentials")

// Release is a release record on the host. A draft release is an unpublished
// record used purely as a staging area for pending release notes.
type Release struct {
	// ID is the host-assigned record identifier.
	ID int64

	// TagName is the tag the release is keyed by ("v" + version).
	TagName string

	// Name is the human-readable release title.
	Name string

	// Body carries the release notes. May be empty.
	Body string

	// Draft marks an unpublished record.
	Draft bool

	// Assets lists attached asset filenames.
	Assets []string
}

// Host is the release-host API surface the pipeline consumes.
type Host interface {
	// ListReleases returns all release records, drafts included. The
	// host's ordering is not guaranteed stable. This read is idempotent
	// and may be retried by implementations.
	ListReleases(ctx context.Context) ([]Release, error)

	// DeleteRelease removes a release record by id. This mutation is
	// destructive and must not be retried by implementations.
	DeleteRelease(ctx context.Context, id int64) error

	// CreateRelease publishes a new release keyed by tag. The tag must
	// already exist upstream; ErrTagNotFound otherwise. Creating a second
	// release for the same tag fails with ErrDuplicateRelease.
	CreateRelease(ctx context.Context, tag, title, notes string) (*Release, error)

	// UploadAsset attaches the file at path to the release as a binary
	// asset. Re-uploading a filename already present fails with
	// ErrAssetExists rather than duplicating it.
	UploadAsset(ctx context.Context, releaseID int64, path string) error
}

// WrapError wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
