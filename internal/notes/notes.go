// Package notes harvests pending release notes from the single draft
// release staged on the release host. The fetch is single-use: once the
// draft's body has been read, the record is deleted so it can never be
// published twice. After the delete succeeds the notes exist only in
// pipeline memory until they are persisted into the changelog and the new
// release.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aviadlevy/releasekit/internal/releasehost"
)

// ErrNoDraft is returned when no draft release exists. The pipeline must
// abort before any mutation occurs, since there is nothing to publish.
var ErrNoDraft = errors.New("no draft release found")

// Fetcher locates, reads, and consumes the pending draft release.
type Fetcher struct {
	host releasehost.Host
	log  *slog.Logger
}

// NewFetcher returns a Fetcher over the given release host.
// If log is nil, slog.Default() is used.
func NewFetcher(host releasehost.Host, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{host: host, log: log}
}

// Peek returns the pending draft's notes without consuming it.
// Used by dry runs to preview the release plan.
func (f *Fetcher) Peek(ctx context.Context) (string, error) {
	draft, err := f.findDraft(ctx)
	if err != nil {
		return "", err
	}
	return draft.Body, nil
}

// FetchAndConsume reads the pending draft's notes and deletes the record.
// The delete is destructive and non-transactional: once it succeeds, the
// operation cannot be retried from the same state.
func (f *Fetcher) FetchAndConsume(ctx context.Context) (string, error) {
	draft, err := f.findDraft(ctx)
	if err != nil {
		return "", err
	}

	if err := f.host.DeleteRelease(ctx, draft.ID); err != nil {
		return "", fmt.Errorf("failed to consume draft release %d: %w", draft.ID, err)
	}

	f.log.Info("consumed draft release", "id", draft.ID)
	return draft.Body, nil
}

// findDraft selects the first draft returned by the host. The host's
// ordering is not guaranteed stable; when several drafts exist the first
// one wins, and the ambiguity is logged.
func (f *Fetcher) findDraft(ctx context.Context) (*releasehost.Release, error) {
	releases, err := f.host.ListReleases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}

	var drafts []releasehost.Release
	for _, r := range releases {
		if r.Draft {
			drafts = append(drafts, r)
		}
	}

	if len(drafts) == 0 {
		return nil, ErrNoDraft
	}
	if len(drafts) > 1 {
		f.log.Warn("multiple draft releases found, using the first",
			"count", len(drafts), "selected", drafts[0].ID)
	}
	return &drafts[0], nil
}
