// Package version models semantic versions and the bump rules used to
// resolve the next release version. Resolve is a pure function: it never
// touches persisted state and is referentially transparent, so the
// orchestrator may call it any number of times before committing.
package version

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// TagPrefix is the fixed literal prepended to a version to form a tag name.
const TagPrefix = "v"

// ErrInvalidBumpKind is returned when a bump kind is not one of
// major, minor, or patch.
var ErrInvalidBumpKind = errors.New("invalid bump kind")

// BumpKind selects which version component increments. Lower components
// reset to zero.
type BumpKind string

const (
	// BumpMajor increments the major component and zeroes minor and patch.
	BumpMajor BumpKind = "major"

	// BumpMinor increments the minor component and zeroes patch.
	BumpMinor BumpKind = "minor"

	// BumpPatch increments the patch component.
	BumpPatch BumpKind = "patch"
)

// String returns the string representation of the BumpKind.
func (k BumpKind) String() string {
	return string(k)
}

// ParseBumpKind validates an operator-provided bump kind.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(s) {
	case BumpMajor, BumpMinor, BumpPatch:
		return BumpKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBumpKind, s)
	}
}

// Version is an ordered (major, minor, patch) triple. The zero value is not
// usable; construct through Parse or Resolve.
type Version struct {
	v semver.Version
}

// Parse parses a "major.minor.patch" string into a Version.
// Pre-release and build metadata are rejected; the pipeline only ever
// publishes plain triples.
func Parse(s string) (Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q: pre-release and metadata are not supported", s)
	}
	return Version{v: *v}, nil
}

// MustParse parses a version string and panics on failure.
// Intended for tests and compile-time constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String serializes the version as "major.minor.patch".
func (v Version) String() string {
	return v.v.String()
}

// TagName returns the tag mirror of the version, "v" + String().
func (v Version) TagName() string {
	return TagPrefix + v.String()
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than other under lexicographic (major, minor, patch) ordering.
func (v Version) Compare(other Version) int {
	return v.v.Compare(&other.v)
}

// GreaterThan reports whether v is strictly greater than other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Resolve computes the next version from current and the bump kind:
// major -> (major+1, 0, 0); minor -> (major, minor+1, 0);
// patch -> (major, minor, patch+1).
func Resolve(current Version, kind BumpKind) (Version, error) {
	switch kind {
	case BumpMajor:
		return Version{v: current.v.IncMajor()}, nil
	case BumpMinor:
		return Version{v: current.v.IncMinor()}, nil
	case BumpPatch:
		return Version{v: current.v.IncPatch()}, nil
	default:
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidBumpKind, kind)
	}
}
