// Package releasehost provides a gateway to the release host.
// This file contains an in-memory Host used by tests. It mirrors the real
// host's semantics (destructive deletes, tag preconditions, duplicate
// rejection) while remaining replayable between test cases.
package releasehost

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
)

// MemoryHost is an in-memory implementation of Host.
type MemoryHost struct {
	mu       sync.Mutex
	nextID   int64
	releases []Release
	tags     map[string]bool

	// FailList, when set, is returned by ListReleases to simulate a
	// remote outage.
	FailList error
}

// NewMemoryHost returns an empty in-memory host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{nextID: 1, tags: make(map[string]bool)}
}

// AddDraft stages a draft release with the given notes body and returns its id.
func (m *MemoryHost) AddDraft(body string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.releases = append(m.releases, Release{ID: id, Body: body, Draft: true})
	return id
}

// SetTagExists marks a tag as present upstream, satisfying the
// CreateRelease precondition.
func (m *MemoryHost) SetTagExists(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[tag] = true
}

// ReleaseByTag returns a copy of the release keyed by tag, if any.
func (m *MemoryHost) ReleaseByTag(tag string) (Release, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.releases {
		if r.TagName == tag {
			return cloneRelease(r), true
		}
	}
	return Release{}, false
}

// ListReleases implements Host.
func (m *MemoryHost) ListReleases(_ context.Context) ([]Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailList != nil {
		return nil, m.FailList
	}

	out := make([]Release, 0, len(m.releases))
	for _, r := range m.releases {
		out = append(out, cloneRelease(r))
	}
	return out, nil
}

// DeleteRelease implements Host.
func (m *MemoryHost) DeleteRelease(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.releases {
		if r.ID == id {
			m.releases = slices.Delete(m.releases, i, i+1)
			return nil
		}
	}
	return WrapError(ErrReleaseNotFound, fmt.Sprintf("release %d", id))
}

// CreateRelease implements Host.
func (m *MemoryHost) CreateRelease(_ context.Context, tag, title, notes string) (*Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.tags[tag] {
		return nil, WrapError(ErrTagNotFound, fmt.Sprintf("tag %q", tag))
	}
	for _, r := range m.releases {
		if r.TagName == tag && !r.Draft {
			return nil, WrapError(ErrDuplicateRelease, fmt.Sprintf("tag %q", tag))
		}
	}

	release := Release{
		ID:      m.nextID,
		TagName: tag,
		Name:    title,
		Body:    notes,
	}
	m.nextID++
	m.releases = append(m.releases, release)

	created := cloneRelease(release)
	return &created, nil
}

// UploadAsset implements Host.
func (m *MemoryHost) UploadAsset(_ context.Context, releaseID int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := filepath.Base(path)
	for i, r := range m.releases {
		if r.ID != releaseID {
			continue
		}
		if slices.Contains(r.Assets, name) {
			return WrapError(ErrAssetExists, fmt.Sprintf("asset %q", name))
		}
		m.releases[i].Assets = append(m.releases[i].Assets, name)
		return nil
	}
	return WrapError(ErrReleaseNotFound, fmt.Sprintf("release %d", releaseID))
}

func cloneRelease(r Release) Release {
	r.Assets = slices.Clone(r.Assets)
	return r
}
