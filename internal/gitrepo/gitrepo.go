// Package gitrepo wraps go-git with the task-oriented operations the release
// pipeline needs: stage, commit under a bot identity, annotated tag, and
// push. It operates exclusively through a billy filesystem so tests can run
// against in-memory or temporary worktrees.
package gitrepo

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/aviadlevy/releasekit/internal/secrets"
)

// DefaultRemoteName is the remote used for push operations.
const DefaultRemoteName = "origin"

// Options configures repository access.
type Options struct {
	// FS is the REQUIRED worktree root filesystem. The .git directory
	// lives inside it.
	FS billy.Filesystem

	// Auth is an optional authentication method for remote operations.
	// If nil, pushes to authenticated remotes fail with ErrAuthRequired.
	Auth transport.AuthMethod

	// RemoteName is the remote pushed to. Defaults to DefaultRemoteName.
	RemoteName string
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidOptions, "FS is required")
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.RemoteName == "" {
		o.RemoteName = DefaultRemoteName
	}
}

// TokenAuth builds an HTTP basic-auth method from a push token, the form
// source-control hosts accept for token-authenticated pushes.
func TokenAuth(token secrets.Secret) transport.AuthMethod {
	return &githttp.BasicAuth{Username: "x-access-token", Password: token.Value()}
}

// Signature identifies the author and committer of commits and tags.
type Signature struct {
	// Name is the committer's name.
	Name string

	// Email is the committer's email address.
	Email string

	// When is the timestamp for the signature. Zero means time.Now at use.
	When time.Time
}

func (s Signature) when() time.Time {
	if s.When.IsZero() {
		return time.Now()
	}
	return s.When
}

// Repo represents an opened git repository with a worktree.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	options  Options
}

// Open opens the existing repository rooted at the options filesystem.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	return load(ctx, opts, git.Open)
}

// Init creates a new repository rooted at the options filesystem.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	return load(ctx, opts, git.Init)
}

func load(
	_ context.Context,
	opts *Options,
	open func(storage.Storer, billy.Filesystem) (*git.Repository, error),
) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	dotGitFS, err := opts.FS.Chroot(git.GitDirName)
	if err != nil {
		return nil, WrapError(err, "failed to access .git directory")
	}
	storage := filesystem.NewStorage(dotGitFS, cache.NewObjectLRUDefault())

	repo, err := open(storage, opts.FS)
	if err != nil {
		return nil, WrapError(err, "failed to open repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{repo: repo, worktree: worktree, options: *opts}, nil
}

// AddRemote registers a remote on the repository. Existing configuration
// for the same name is an error.
func (r *Repo) AddRemote(name, url string) error {
	_, err := r.repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return WrapErrorf(err, "failed to add remote %q", name)
	}
	return nil
}
