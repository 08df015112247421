// Package releasehost provides a gateway to the release host.
// This file contains the GitHub implementation of the Host interface.
package releasehost

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v39/github"
	"golang.org/x/oauth2"

	"github.com/aviadlevy/releasekit/internal/secrets"
)

const (
	// defaultListPageSize is the page size for release listing.
	defaultListPageSize = 100

	// defaultMaxListRetries bounds the retry loop on the idempotent
	// release listing read. Mutations are never retried.
	defaultMaxListRetries = 4

	// defaultInitialBackoff is the first retry delay for listing.
	defaultInitialBackoff = 500 * time.Millisecond
)

// GitHubHost implements Host against the GitHub releases API.
type GitHubHost struct {
	client *github.Client
	owner  string
	repo   string
	log    *slog.Logger

	maxListRetries uint64
	initialBackoff time.Duration
}

// GitHubOption configures a GitHubHost.
type GitHubOption func(*GitHubHost)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) GitHubOption {
	return func(h *GitHubHost) { h.log = log }
}

// WithBaseURL points the client at a different API endpoint, used by tests
// against a stub server. Asset uploads follow the same endpoint.
func WithBaseURL(rawURL string) GitHubOption {
	return func(h *GitHubHost) {
		if u, err := h.client.BaseURL.Parse(rawURL); err == nil {
			h.client.BaseURL = u
			h.client.UploadURL = u
		}
	}
}

// WithListRetry tunes the bounded backoff on the release listing read.
func WithListRetry(maxRetries uint64, initial time.Duration) GitHubOption {
	return func(h *GitHubHost) {
		h.maxListRetries = maxRetries
		h.initialBackoff = initial
	}
}

// NewGitHubHost returns a Host backed by the GitHub API for owner/repo,
// authenticated with the release-host token.
func NewGitHubHost(
	ctx context.Context,
	owner, repo string,
	token secrets.Secret,
	opts ...GitHubOption,
) *GitHubHost {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
	h := &GitHubHost{
		client:         github.NewClient(oauth2.NewClient(ctx, ts)),
		owner:          owner,
		repo:           repo,
		log:            slog.Default(),
		maxListRetries: defaultMaxListRetries,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListReleases implements Host. The read is idempotent, so transient
// transport failures are retried with bounded exponential backoff.
func (h *GitHubHost) ListReleases(ctx context.Context) ([]Release, error) {
	var out []Release

	operation := func() error {
		opts := &github.ListOptions{PerPage: defaultListPageSize}
		var all []*github.RepositoryRelease
		for {
			page, resp, err := h.client.Repositories.ListReleases(ctx, h.owner, h.repo, opts)
			if err != nil {
				if isPermanent(resp) {
					return backoff.Permanent(mapAPIError(resp, err))
				}
				return err
			}
			all = append(all, page...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}

		out = out[:0]
		for _, r := range all {
			out = append(out, fromGitHubRelease(r))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = h.initialBackoff
	if err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, h.maxListRetries), ctx)); err != nil {
		return nil, WrapError(err, "failed to list releases")
	}
	return out, nil
}

// DeleteRelease implements Host. The delete is non-idempotent and is never
// retried; once it succeeds, the record is gone for good.
func (h *GitHubHost) DeleteRelease(ctx context.Context, id int64) error {
	resp, err := h.client.Repositories.DeleteRelease(ctx, h.owner, h.repo, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return WrapError(ErrReleaseNotFound, fmt.Sprintf("release %d", id))
		}
		return WrapError(mapAPIError(resp, err), "failed to delete release")
	}
	h.log.Debug("deleted release record", "id", id)
	return nil
}

// CreateRelease implements Host. The tag must already exist upstream; the
// precondition is checked explicitly so a missing tag fails as
// ErrTagNotFound instead of the host silently minting a new tag.
func (h *GitHubHost) CreateRelease(ctx context.Context, tag, title, notes string) (*Release, error) {
	_, resp, err := h.client.Git.GetRef(ctx, h.owner, h.repo, "tags/"+tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, WrapError(ErrTagNotFound, fmt.Sprintf("tag %q", tag))
		}
		return nil, WrapError(mapAPIError(resp, err), "failed to verify tag")
	}

	release, resp, err := h.client.Repositories.CreateRelease(ctx, h.owner, h.repo, &github.RepositoryRelease{
		TagName: github.String(tag),
		Name:    github.String(title),
		Body:    github.String(notes),
		Draft:   github.Bool(false),
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, WrapError(ErrDuplicateRelease, fmt.Sprintf("tag %q", tag))
		}
		return nil, WrapError(mapAPIError(resp, err), "failed to create release")
	}

	h.log.Info("created release", "tag", tag, "id", release.GetID())
	created := fromGitHubRelease(release)
	return &created, nil
}

// UploadAsset implements Host. Uploads are keyed by filename; the host
// rejects a duplicate name, surfaced as ErrAssetExists.
func (h *GitHubHost) UploadAsset(ctx context.Context, releaseID int64, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open asset %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(path)
	_, resp, err := h.client.Repositories.UploadReleaseAsset(ctx, h.owner, h.repo, releaseID,
		&github.UploadOptions{Name: name}, file)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return WrapError(ErrAssetExists, fmt.Sprintf("asset %q", name))
		}
		return WrapError(mapAPIError(resp, err), fmt.Sprintf("failed to upload asset %q", name))
	}

	h.log.Info("uploaded release asset", "release", releaseID, "asset", name)
	return nil
}

// isPermanent reports whether a response indicates a non-retryable failure.
func isPermanent(resp *github.Response) bool {
	return resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500
}

// mapAPIError folds transport errors into the package sentinels.
func mapAPIError(resp *github.Response, err error) error {
	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}

// fromGitHubRelease converts the API representation to the package type.
func fromGitHubRelease(r *github.RepositoryRelease) Release {
	release := Release{
		ID:      r.GetID(),
		TagName: r.GetTagName(),
		Name:    r.GetName(),
		Body:    r.GetBody(),
		Draft:   r.GetDraft(),
	}
	for _, a := range r.Assets {
		release.Assets = append(release.Assets, a.GetName())
	}
	return release
}
