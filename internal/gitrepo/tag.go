// Package gitrepo wraps go-git for the release pipeline.
// This file contains tag operations.
package gitrepo

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateAnnotatedTag creates an annotated tag named name at HEAD, with who
// as the tagger. Returns ErrTagExists if the tag is already present.
func (r *Repo) CreateAnnotatedTag(_ context.Context, name, message string, who Signature) error {
	if name == "" {
		return WrapError(ErrInvalidOptions, "tag name cannot be empty")
	}

	if _, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true); err == nil {
		return WrapErrorf(ErrTagExists, "tag %q", name)
	}

	head, err := r.repo.Head()
	if err != nil {
		return WrapError(err, "failed to resolve HEAD")
	}

	_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  who.Name,
			Email: who.Email,
			When:  who.when(),
		},
		Message: message,
	})
	if err != nil {
		return WrapErrorf(err, "failed to create annotated tag %q", name)
	}

	return nil
}

// HasTag reports whether the tag exists locally.
func (r *Repo) HasTag(name string) bool {
	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	return err == nil
}
