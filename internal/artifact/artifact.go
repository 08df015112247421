// Package artifact builds the distributable outputs for a release: a source
// archive and a binary package for exactly one version. The build itself is
// delegated to a configured command; this package checks preconditions and
// collects the outputs.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aviadlevy/releasekit/internal/cmdexec"
	"github.com/aviadlevy/releasekit/internal/project"
	"github.com/aviadlevy/releasekit/internal/version"
)

// DefaultDistDir is the directory, relative to the repository root, where the
// build command is expected to place its outputs.
const DefaultDistDir = "dist"

// ErrVersionMismatch is returned when the persisted version field does not
// match the version being released. The metadata file is the single source
// of truth; a mismatch means an earlier pipeline step did not land.
var ErrVersionMismatch = errors.New("persisted version does not match release version")

// ErrBuildFailed is returned when the build command exits non-zero or the
// expected outputs are missing afterwards.
var ErrBuildFailed = errors.New("artifact build failed")

// ErrInvalidOptions is returned when builder options are malformed.
var ErrInvalidOptions = errors.New("invalid builder options")

// WrapError wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Set holds the build outputs for one version. Paths are absolute and the
// files are content-addressed by name, so the registry and the release host
// both receive the same filenames.
type Set struct {
	// Version the set was built for.
	Version version.Version

	// SourceArchive is the path of the source tarball.
	SourceArchive string

	// BinaryPackage is the path of the binary package.
	BinaryPackage string
}

// Files returns the artifact paths in upload order.
func (s *Set) Files() []string {
	return []string{s.SourceArchive, s.BinaryPackage}
}

// Options configures a Builder.
type Options struct {
	// Name is the REQUIRED project name used in artifact filenames.
	Name string

	// RepoDir is the REQUIRED repository root the build runs in.
	RepoDir string

	// Metadata is the REQUIRED project metadata store, re-read before each
	// build to confirm the persisted version matches the release version.
	Metadata *project.Metadata

	// Runner executes the build command. Defaults to cmdexec.NewOSRunner().
	Runner cmdexec.Runner

	// BuildCommand is the REQUIRED program and arguments invoked to produce
	// the dist outputs, e.g. {"make", "dist"}.
	BuildCommand []string

	// DistDir is the output directory relative to RepoDir. Defaults to
	// DefaultDistDir.
	DistDir string

	// Log receives build progress. Defaults to slog.Default().
	Log *slog.Logger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.Name == "" {
		return WrapError(ErrInvalidOptions, "Name is required")
	}
	if o.RepoDir == "" {
		return WrapError(ErrInvalidOptions, "RepoDir is required")
	}
	if o.Metadata == nil {
		return WrapError(ErrInvalidOptions, "Metadata is required")
	}
	if len(o.BuildCommand) == 0 {
		return WrapError(ErrInvalidOptions, "BuildCommand is required")
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Runner == nil {
		o.Runner = cmdexec.NewOSRunner()
	}
	if o.DistDir == "" {
		o.DistDir = DefaultDistDir
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
}

// Builder produces artifact sets by running the configured build command.
type Builder struct {
	options Options
}

// NewBuilder creates a Builder from the given options.
func NewBuilder(opts *Options) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	return &Builder{options: *opts}, nil
}

// Build runs the build command and collects the outputs for v. The persisted
// version field must already equal v; the builder never writes it.
func (b *Builder) Build(ctx context.Context, v version.Version) (*Set, error) {
	persisted, err := b.options.Metadata.Version()
	if err != nil {
		return nil, WrapError(err, "failed to read persisted version")
	}
	if persisted.Compare(v) != 0 {
		return nil, fmt.Errorf("persisted %s, releasing %s: %w", persisted, v, ErrVersionMismatch)
	}

	b.options.Log.Info("building artifacts",
		"version", v.String(),
		"command", b.options.BuildCommand,
	)

	program, args := b.options.BuildCommand[0], b.options.BuildCommand[1:]
	result, err := b.options.Runner.Run(ctx, program, args, cmdexec.WithWorkDir(b.options.RepoDir))
	if result != nil && result.ExitCode != 0 {
		return nil, fmt.Errorf("build command exited %d: %s: %w",
			result.ExitCode, result.Stderr, ErrBuildFailed)
	}
	if err != nil {
		return nil, WrapError(err, "failed to run build command")
	}

	set := &Set{
		Version:       v,
		SourceArchive: b.distPath(fmt.Sprintf("%s-%s.tar.gz", b.options.Name, v)),
		BinaryPackage: b.distPath(fmt.Sprintf("%s-%s.zip", b.options.Name, v)),
	}
	for _, path := range set.Files() {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("expected output %s: %v: %w", path, err, ErrBuildFailed)
		}
	}

	b.options.Log.Info("artifacts built",
		"source_archive", set.SourceArchive,
		"binary_package", set.BinaryPackage,
	)
	return set, nil
}

func (b *Builder) distPath(name string) string {
	return filepath.Join(b.options.RepoDir, b.options.DistDir, name)
}
