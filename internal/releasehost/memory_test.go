package releasehost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHostDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()

	id := host.AddDraft("- fix X")

	releases, err := host.ListReleases(ctx)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.True(t, releases[0].Draft)
	assert.Equal(t, "- fix X", releases[0].Body)

	require.NoError(t, host.DeleteRelease(ctx, id))

	releases, err = host.ListReleases(ctx)
	require.NoError(t, err)
	assert.Empty(t, releases)

	// The delete is destructive; a second delete reports a missing record.
	assert.ErrorIs(t, host.DeleteRelease(ctx, id), ErrReleaseNotFound)
}

func TestMemoryHostCreateRequiresTag(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()

	_, err := host.CreateRelease(ctx, "v1.0.0", "v1.0.0", "notes")
	assert.ErrorIs(t, err, ErrTagNotFound)

	host.SetTagExists("v1.0.0")
	release, err := host.CreateRelease(ctx, "v1.0.0", "v1.0.0", "notes")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", release.TagName)
	assert.False(t, release.Draft)

	_, err = host.CreateRelease(ctx, "v1.0.0", "v1.0.0", "notes")
	assert.ErrorIs(t, err, ErrDuplicateRelease)
}

func TestMemoryHostAssetUpload(t *testing.T) {
	ctx := context.Background()
	host := NewMemoryHost()
	host.SetTagExists("v2.0.0")

	release, err := host.CreateRelease(ctx, "v2.0.0", "v2.0.0", "")
	require.NoError(t, err)

	require.NoError(t, host.UploadAsset(ctx, release.ID, "/dist/pkg-2.0.0.tar.gz"))
	require.NoError(t, host.UploadAsset(ctx, release.ID, "/dist/pkg-2.0.0.whl"))

	// Re-uploading the same filename fails instead of duplicating it.
	err = host.UploadAsset(ctx, release.ID, "/elsewhere/pkg-2.0.0.tar.gz")
	assert.ErrorIs(t, err, ErrAssetExists)

	got, ok := host.ReleaseByTag("v2.0.0")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"pkg-2.0.0.tar.gz", "pkg-2.0.0.whl"}, got.Assets)

	assert.ErrorIs(t, host.UploadAsset(ctx, 9999, "/dist/x"), ErrReleaseNotFound)
}
