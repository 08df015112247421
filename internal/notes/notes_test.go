package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviadlevy/releasekit/internal/releasehost"
)

func TestFetchAndConsume(t *testing.T) {
	ctx := context.Background()
	host := releasehost.NewMemoryHost()
	host.AddDraft("- fix X")

	fetcher := NewFetcher(host, nil)

	body, err := fetcher.FetchAndConsume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "- fix X", body)

	// The draft record is gone after the read.
	releases, err := host.ListReleases(ctx)
	require.NoError(t, err)
	assert.Empty(t, releases)
}

func TestFetchAndConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	host := releasehost.NewMemoryHost()
	host.AddDraft("- fix X")

	fetcher := NewFetcher(host, nil)

	_, err := fetcher.FetchAndConsume(ctx)
	require.NoError(t, err)

	// A second call with no new draft fails; it never returns stale data.
	_, err = fetcher.FetchAndConsume(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestFetchAndConsumeNoDraft(t *testing.T) {
	host := releasehost.NewMemoryHost()
	fetcher := NewFetcher(host, nil)

	_, err := fetcher.FetchAndConsume(context.Background())
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestFetchAndConsumeEmptyBody(t *testing.T) {
	host := releasehost.NewMemoryHost()
	host.AddDraft("")

	fetcher := NewFetcher(host, nil)

	body, err := fetcher.FetchAndConsume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

func TestFetchAndConsumeFirstDraftWins(t *testing.T) {
	ctx := context.Background()
	host := releasehost.NewMemoryHost()
	first := host.AddDraft("- first")
	host.AddDraft("- second")

	fetcher := NewFetcher(host, nil)

	body, err := fetcher.FetchAndConsume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "- first", body)

	// Only the consumed draft was deleted.
	releases, err := host.ListReleases(ctx)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.NotEqual(t, first, releases[0].ID)
}

func TestFetchAndConsumeRemoteFailure(t *testing.T) {
	host := releasehost.NewMemoryHost()
	host.FailList = errors.New("transport down")

	fetcher := NewFetcher(host, nil)

	_, err := fetcher.FetchAndConsume(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDraft)
}

func TestPeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	host := releasehost.NewMemoryHost()
	host.AddDraft("- pending")

	fetcher := NewFetcher(host, nil)

	body, err := fetcher.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "- pending", body)

	releases, err := host.ListReleases(ctx)
	require.NoError(t, err)
	assert.Len(t, releases, 1)
}
