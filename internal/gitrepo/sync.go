// Package gitrepo wraps go-git for the release pipeline.
// This file contains push operations. The branch push and the tag push are
// sequential, not atomic: one can land without the other, and the operator
// must reconcile a partial push by hand.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// PushBranch pushes the current branch to the configured remote.
// Returns ErrPushRejected when the remote has diverged; no merge or rebase
// is attempted.
func (r *Repo) PushBranch(ctx context.Context) error {
	head, err := r.repo.Head()
	if err != nil {
		return WrapError(err, "failed to resolve HEAD")
	}
	if !head.Name().IsBranch() {
		return WrapError(ErrInvalidOptions, "HEAD is not on a branch")
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", head.Name(), head.Name()))
	return r.push(ctx, refSpec)
}

// PushTag pushes a single tag to the configured remote.
func (r *Repo) PushTag(ctx context.Context, name string) error {
	tagRef := plumbing.NewTagReferenceName(name)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", tagRef, tagRef))
	return r.push(ctx, refSpec)
}

func (r *Repo) push(ctx context.Context, refSpec gitconfig.RefSpec) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.options.RemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       r.options.Auth,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		// Nothing to push for this refspec.
		return nil
	case isNonFastForward(err):
		return WrapErrorf(ErrPushRejected, "refspec %s", refSpec)
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return WrapErrorf(ErrAuthRequired, "refspec %s", refSpec)
	default:
		return WrapErrorf(err, "failed to push %s", refSpec)
	}
}

// isNonFastForward recognizes a push the remote rejected for divergence.
// go-git reports per-ref rejection as a plain formatted error rather than
// its ErrNonFastForwardUpdate sentinel, so both forms are checked.
func isNonFastForward(err error) bool {
	return errors.Is(err, git.ErrNonFastForwardUpdate) ||
		strings.Contains(err.Error(), "non-fast-forward update")
}
