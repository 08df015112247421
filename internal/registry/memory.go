package registry

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/aviadlevy/releasekit/internal/artifact"
)

// MemoryPublisher is an in-memory Publisher for tests. It mirrors the real
// registry's semantics: filenames are unique forever, and a duplicate aborts
// the upload leaving earlier files recorded.
type MemoryPublisher struct {
	mu    sync.Mutex
	files map[string]struct{}

	// FailWith, when set, is returned by the next Upload call before any
	// file is recorded.
	FailWith error
}

// NewMemoryPublisher returns an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{files: make(map[string]struct{})}
}

// Upload implements Publisher.
func (p *MemoryPublisher) Upload(_ context.Context, set *artifact.Set) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailWith != nil {
		err := p.FailWith
		p.FailWith = nil
		return err
	}

	for _, path := range set.Files() {
		name := filepath.Base(path)
		if _, exists := p.files[name]; exists {
			return WrapErrorf(ErrDuplicateVersion, "uploading %s", name)
		}
		p.files[name] = struct{}{}
	}
	return nil
}

// Has reports whether a file with the given base name was uploaded.
func (p *MemoryPublisher) Has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.files[name]
	return exists
}
