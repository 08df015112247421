package releasehost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviadlevy/releasekit/internal/secrets"
)

// newStubHost wires a GitHubHost against a stub API server.
func newStubHost(t *testing.T, handler http.Handler) *GitHubHost {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGitHubHost(context.Background(), "aviadlevy", "hdate",
		secrets.NewSecret("test-token"),
		WithBaseURL(srv.URL+"/"),
		WithListRetry(2, time.Millisecond),
	)
}

func TestGitHubListReleases(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/releases", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 11, "tag_name": "", "body": "- fix X", "draft": true},
			{"id": 7, "tag_name": "v0.10.11", "name": "v0.10.11", "draft": false},
		})
	})

	host := newStubHost(t, mux)
	releases, err := host.ListReleases(context.Background())
	require.NoError(t, err)

	require.Len(t, releases, 2)
	assert.True(t, releases[0].Draft)
	assert.Equal(t, "- fix X", releases[0].Body)
	assert.Equal(t, "v0.10.11", releases[1].TagName)
}

func TestGitHubListReleasesRetriesTransientFailures(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/releases", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	})

	host := newStubHost(t, mux)
	_, err := host.ListReleases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "first failure retried once")
}

func TestGitHubListReleasesUnauthorizedIsPermanent(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/releases", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	host := newStubHost(t, mux)
	_, err := host.ListReleases(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, calls, "auth failures are not retried")
}

func TestGitHubCreateReleaseChecksTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/git/ref/tags/v0.10.12", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	host := newStubHost(t, mux)
	_, err := host.CreateRelease(context.Background(), "v0.10.12", "v0.10.12", "- fix X")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestGitHubCreateRelease(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/git/ref/tags/v0.10.12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"ref": "refs/tags/v0.10.12", "object": {"sha": "abc"}}`)
	})
	mux.HandleFunc("/repos/aviadlevy/hdate/releases", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v0.10.12", body["tag_name"])
		assert.Equal(t, "- fix X", body["body"])
		assert.Equal(t, false, body["draft"])

		_, _ = fmt.Fprint(w, `{"id": 42, "tag_name": "v0.10.12", "name": "v0.10.12", "body": "- fix X"}`)
	})

	host := newStubHost(t, mux)
	release, err := host.CreateRelease(context.Background(), "v0.10.12", "v0.10.12", "- fix X")
	require.NoError(t, err)
	assert.Equal(t, int64(42), release.ID)
	assert.Equal(t, "v0.10.12", release.TagName)
}

func TestGitHubCreateReleaseDuplicate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/git/ref/tags/v0.10.12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"ref": "refs/tags/v0.10.12", "object": {"sha": "abc"}}`)
	})
	mux.HandleFunc("/repos/aviadlevy/hdate/releases", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprint(w, `{"message": "Validation Failed", "errors": [{"code": "already_exists"}]}`)
	})

	host := newStubHost(t, mux)
	_, err := host.CreateRelease(context.Background(), "v0.10.12", "v0.10.12", "")
	assert.ErrorIs(t, err, ErrDuplicateRelease)
}

func TestGitHubDeleteRelease(t *testing.T) {
	var deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/aviadlevy/hdate/releases/11", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})

	host := newStubHost(t, mux)
	require.NoError(t, host.DeleteRelease(context.Background(), 11))
	assert.True(t, deleted)
}
