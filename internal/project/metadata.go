// Package project reads and rewrites the persisted project metadata.
// The version field inside the metadata document is the single source of
// truth for "current version"; tags are a derived, append-only mirror of it.
package project

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/aviadlevy/releasekit/internal/version"
)

// DefaultMetadataPath is the default location of the project metadata file,
// relative to the repository root.
const DefaultMetadataPath = "project.toml"

// ErrVersionFieldMissing is returned when the metadata document contains no
// version field matching the expected `version = "major.minor.patch"` shape.
var ErrVersionFieldMissing = errors.New("version field not found in project metadata")

// versionField matches the persisted version scalar. Only the first match is
// ever read or rewritten.
var versionField = regexp.MustCompile(`(?m)^(version\s*=\s*")(\d+\.\d+\.\d+)(")`)

// Metadata provides read and rewrite access to the version field of a
// project metadata file.
type Metadata struct {
	fs   billy.Filesystem
	path string
}

// NewMetadata returns a Metadata store for the given file. If path is empty,
// DefaultMetadataPath is used.
func NewMetadata(fs billy.Filesystem, path string) *Metadata {
	if path == "" {
		path = DefaultMetadataPath
	}
	return &Metadata{fs: fs, path: path}
}

// Path returns the metadata file path relative to the filesystem root.
func (m *Metadata) Path() string {
	return m.path
}

// Version reads the current version from the metadata document.
func (m *Metadata) Version() (version.Version, error) {
	data, err := util.ReadFile(m.fs, m.path)
	if err != nil {
		return version.Version{}, fmt.Errorf("failed to read project metadata %q: %w", m.path, err)
	}

	match := versionField.FindSubmatch(data)
	if match == nil {
		return version.Version{}, ErrVersionFieldMissing
	}

	v, err := version.Parse(string(match[2]))
	if err != nil {
		return version.Version{}, fmt.Errorf("project metadata %q: %w", m.path, err)
	}
	return v, nil
}

// SetVersion rewrites the version field in place, leaving the rest of the
// document untouched. Returns ErrVersionFieldMissing if no field matches.
func (m *Metadata) SetVersion(v version.Version) error {
	data, err := util.ReadFile(m.fs, m.path)
	if err != nil {
		return fmt.Errorf("failed to read project metadata %q: %w", m.path, err)
	}

	loc := versionField.FindSubmatchIndex(data)
	if loc == nil {
		return ErrVersionFieldMissing
	}

	// Splice the new version into the second capture group only.
	var out []byte
	out = append(out, data[:loc[4]]...)
	out = append(out, v.String()...)
	out = append(out, data[loc[5]:]...)

	if err := util.WriteFile(m.fs, m.path, out, 0o644); err != nil {
		return fmt.Errorf("failed to rewrite project metadata %q: %w", m.path, err)
	}
	return nil
}
