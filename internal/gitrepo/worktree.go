// Package gitrepo wraps go-git for the release pipeline.
// This file contains worktree operations (stage and commit).
package gitrepo

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Add stages the given paths for the next commit. Paths that do not exist
// in the worktree are an error; the release pipeline always stages files it
// has just rewritten.
func (r *Repo) Add(_ context.Context, paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := r.worktree.Add(path); err != nil {
			return WrapErrorf(err, "failed to stage %q", path)
		}
	}
	return nil
}

// Commit creates a commit of the staged changes with who as both author and
// committer. Returns the commit SHA. Commits with nothing staged fail with
// ErrEmptyCommit.
func (r *Repo) Commit(_ context.Context, msg string, who Signature) (string, error) {
	if msg == "" {
		return "", WrapError(ErrInvalidOptions, "commit message cannot be empty")
	}
	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidOptions, "committer name and email are required")
	}

	status, err := r.worktree.Status()
	if err != nil {
		return "", WrapError(err, "failed to get worktree status")
	}

	staged := 0
	for _, fileStatus := range status {
		if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
			staged++
		}
	}
	if staged == 0 {
		return "", ErrEmptyCommit
	}

	sig := &object.Signature{Name: who.Name, Email: who.Email, When: who.when()}
	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrEmptyCommit
		}
		return "", WrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}
