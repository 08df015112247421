package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aviadlevy/releasekit/internal/artifact"
	"github.com/aviadlevy/releasekit/internal/changelog"
	"github.com/aviadlevy/releasekit/internal/errkind"
	"github.com/aviadlevy/releasekit/internal/gitrepo"
	"github.com/aviadlevy/releasekit/internal/notes"
	"github.com/aviadlevy/releasekit/internal/project"
	"github.com/aviadlevy/releasekit/internal/registry"
	"github.com/aviadlevy/releasekit/internal/releasehost"
	"github.com/aviadlevy/releasekit/internal/version"
)

// ErrInvalidOptions is returned when release options are malformed.
var ErrInvalidOptions = errors.New("invalid release options")

// Default bot identity for release commits and tags.
const (
	DefaultBotName  = "releasekit"
	DefaultBotEmail = "releasekit@users.noreply.github.com"
)

// Options wires the components a release run needs.
type Options struct {
	// Bump is the version component to increment.
	Bump version.BumpKind

	// Metadata is the REQUIRED project metadata store.
	Metadata *project.Metadata

	// Changelog is the REQUIRED changelog store.
	Changelog *changelog.Store

	// Repo is the REQUIRED git repository.
	Repo *gitrepo.Repo

	// Host is the REQUIRED release host gateway.
	Host releasehost.Host

	// Notes is the REQUIRED draft-notes fetcher.
	Notes *notes.Fetcher

	// Builder is the REQUIRED artifact builder.
	Builder *artifact.Builder

	// Registry is the REQUIRED package registry publisher.
	Registry registry.Publisher

	// Bot is the commit and tag identity. Name and Email default to
	// DefaultBotName and DefaultBotEmail.
	Bot gitrepo.Signature

	// DryRun resolves the version and previews the notes without mutating
	// anything.
	DryRun bool

	// Now supplies the changelog section date. Defaults to time.Now.
	Now func() time.Time

	// Log receives run progress. Defaults to slog.Default().
	Log *slog.Logger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	required := []struct {
		name string
		ok   bool
	}{
		{"Metadata", o.Metadata != nil},
		{"Changelog", o.Changelog != nil},
		{"Repo", o.Repo != nil},
		{"Host", o.Host != nil},
		{"Notes", o.Notes != nil},
		{"Builder", o.Builder != nil},
		{"Registry", o.Registry != nil},
	}
	for _, r := range required {
		if !r.ok {
			return fmt.Errorf("%s is required: %w", r.name, ErrInvalidOptions)
		}
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Bot.Name == "" {
		o.Bot.Name = DefaultBotName
	}
	if o.Bot.Email == "" {
		o.Bot.Email = DefaultBotEmail
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
}

// Release orchestrates one release run. State produced by earlier steps
// (resolved version, harvested notes, published record, built artifacts) is
// carried on the struct for later steps; a Release is single-use.
type Release struct {
	options Options

	next     version.Version
	notes    string
	released *releasehost.Release
	set      *artifact.Set
}

// NewRelease creates a single-use Release from the given options.
func NewRelease(opts *Options) (*Release, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	return &Release{options: *opts}, nil
}

// Run executes the release pipeline and returns its report. On a dry run
// only the read-only steps execute.
func (r *Release) Run(ctx context.Context) (*Report, error) {
	runner := NewRunner(r.options.Log)
	if r.options.DryRun {
		return runner.Run(ctx, []Step{
			{Name: "resolve-version", Run: r.resolveVersion},
			{Name: "preview-notes", Run: r.previewNotes},
		})
	}

	return runner.Run(ctx, []Step{
		{Name: "resolve-version", Run: r.resolveVersion},
		{Name: "fetch-notes", Run: r.fetchNotes},
		{Name: "update-changelog", Run: r.updateChangelog},
		{Name: "commit-and-tag", Run: r.commitAndTag},
		{Name: "publish-release", Run: r.publishRelease},
		{Name: "build-artifacts", Run: r.buildArtifacts},
		{Name: "upload-registry", Run: r.uploadRegistry},
		{Name: "attach-assets", Run: r.attachAssets},
	})
}

func (r *Release) resolveVersion(context.Context) error {
	current, err := r.options.Metadata.Version()
	if err != nil {
		// A failed or missing metadata store is a broken starting state,
		// not bad operator input.
		return errkind.Classify(errkind.CodePreconditionFailed, err)
	}

	next, err := version.Resolve(current, r.options.Bump)
	if err != nil {
		return errkind.Classify(errkind.CodeInvalidInput, err)
	}

	r.next = next
	r.options.Log.Info("resolved next version",
		"current", current.String(),
		"next", next.String(),
		"bump", r.options.Bump.String(),
	)
	return nil
}

func (r *Release) previewNotes(ctx context.Context) error {
	body, err := r.options.Notes.Peek(ctx)
	if err != nil {
		return classifyNotes(err)
	}

	r.notes = body
	r.options.Log.Info("dry run plan",
		"next", r.next.String(),
		"tag", r.next.TagName(),
		"notes_bytes", len(body),
	)
	return nil
}

func (r *Release) fetchNotes(ctx context.Context) error {
	body, err := r.options.Notes.FetchAndConsume(ctx)
	if err != nil {
		return classifyNotes(err)
	}
	r.notes = body
	return nil
}

func classifyNotes(err error) error {
	if errors.Is(err, notes.ErrNoDraft) {
		return errkind.Classify(errkind.CodePreconditionFailed, err)
	}
	return errkind.Classify(errkind.CodeRemoteFailure, err)
}

func (r *Release) updateChangelog(context.Context) error {
	err := r.options.Changelog.Prepend(r.next, r.options.Now(), r.notes)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, changelog.ErrNotMonotonic):
		return errkind.Classify(errkind.CodeConsistencyFailure, err)
	default:
		return errkind.Classify(errkind.CodeInvalidInput, err)
	}
}

func (r *Release) commitAndTag(ctx context.Context) error {
	if err := r.options.Metadata.SetVersion(r.next); err != nil {
		return errkind.Classify(errkind.CodeConsistencyFailure, err)
	}

	paths := []string{r.options.Changelog.Path(), r.options.Metadata.Path()}
	if err := r.options.Repo.Add(ctx, paths...); err != nil {
		return errkind.Classify(errkind.CodeUnknown, err)
	}

	msg := fmt.Sprintf("release: %s", r.next.TagName())
	if _, err := r.options.Repo.Commit(ctx, msg, r.options.Bot); err != nil {
		return errkind.Classify(errkind.CodeStateConflict, err)
	}

	tagMsg := fmt.Sprintf("Release %s", r.next.TagName())
	if err := r.options.Repo.CreateAnnotatedTag(ctx, r.next.TagName(), tagMsg, r.options.Bot); err != nil {
		return errkind.Classify(errkind.CodePreconditionFailed, err)
	}

	// The two pushes are sequential, not atomic. A branch-push failure
	// must not skip the tag push; both outcomes are reported and the
	// branch failure wins as the step error.
	branchErr := r.options.Repo.PushBranch(ctx)
	if branchErr != nil {
		r.options.Log.Error("branch push failed, still pushing tag",
			"tag", r.next.TagName(), "error", branchErr)
	}
	tagErr := r.options.Repo.PushTag(ctx, r.next.TagName())
	if tagErr != nil {
		r.options.Log.Error("tag push failed",
			"tag", r.next.TagName(), "error", tagErr)
	}

	if branchErr != nil {
		return classifyPush(branchErr)
	}
	if tagErr != nil {
		return classifyPush(tagErr)
	}
	return nil
}

func classifyPush(err error) error {
	if errors.Is(err, gitrepo.ErrPushRejected) {
		return errkind.Classify(errkind.CodeStateConflict, err)
	}
	return errkind.Classify(errkind.CodeRemoteFailure, err)
}

func (r *Release) publishRelease(ctx context.Context) error {
	title := r.next.TagName()
	released, err := r.options.Host.CreateRelease(ctx, r.next.TagName(), title, r.notes)
	switch {
	case err == nil:
		r.released = released
		return nil
	case errors.Is(err, releasehost.ErrTagNotFound):
		return errkind.Classify(errkind.CodePreconditionFailed, err)
	case errors.Is(err, releasehost.ErrDuplicateRelease):
		return errkind.Classify(errkind.CodeStateConflict, err)
	default:
		return errkind.Classify(errkind.CodeRemoteFailure, err)
	}
}

func (r *Release) buildArtifacts(ctx context.Context) error {
	set, err := r.options.Builder.Build(ctx, r.next)
	switch {
	case err == nil:
		r.set = set
		return nil
	case errors.Is(err, artifact.ErrVersionMismatch):
		return errkind.Classify(errkind.CodeConsistencyFailure, err)
	default:
		return errkind.Classify(errkind.CodeUnknown, err)
	}
}

func (r *Release) uploadRegistry(ctx context.Context) error {
	err := r.options.Registry.Upload(ctx, r.set)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registry.ErrDuplicateVersion):
		return errkind.Classify(errkind.CodeStateConflict, err)
	default:
		return errkind.Classify(errkind.CodeRemoteFailure, err)
	}
}

func (r *Release) attachAssets(ctx context.Context) error {
	for _, path := range r.set.Files() {
		err := r.options.Host.UploadAsset(ctx, r.released.ID, path)
		switch {
		case err == nil:
			r.options.Log.Info("attached asset", "file", filepath.Base(path))
		case errors.Is(err, releasehost.ErrAssetExists):
			return errkind.Classify(errkind.CodeStateConflict, err)
		default:
			return errkind.Classify(errkind.CodeRemoteFailure, err)
		}
	}
	return nil
}
