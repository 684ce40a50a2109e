// Package localgit implements the commit-history provider contract against an
// on-disk clone using go-git. It lets changelogs be drafted without any hosted
// API access; tag dereferencing and compare semantics match the hosted client.
package localgit

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/provider"
)

// Provider reads commit history from a local repository. The repo argument of
// the contract methods is ignored beyond error messages; the provider is bound
// to one clone at construction.
type Provider struct {
	repo *git.Repository
	path string
}

// Open opens the repository at path, traversing up to find the .git directory.
func Open(path string) (*Provider, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.NotFound, "opening repository at "+path)
	}
	return &Provider{repo: repo, path: path}, nil
}

// ResolveTag resolves a tag to its commit SHA, dereferencing annotated tags.
func (p *Provider) ResolveTag(_ context.Context, repo, tag string) (string, error) {
	ref, err := p.repo.Tag(tag)
	if err != nil {
		if errors.Is(err, git.ErrTagNotFound) {
			return "", apperr.New(apperr.NotFound, "tag %q not found in %s", tag, p.path).WithScope(repo, "")
		}
		return "", apperr.Wrap(err, apperr.Upstream, "resolving tag "+tag)
	}

	// An annotated tag ref points at a tag object; a lightweight one points
	// straight at the commit.
	tagObj, err := p.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := tagObj.Commit()
		if err != nil {
			return "", apperr.Wrap(err, apperr.Upstream, "dereferencing annotated tag "+tag)
		}
		return commit.Hash.String(), nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return ref.Hash().String(), nil
	default:
		return "", apperr.Wrap(err, apperr.Upstream, "reading tag object for "+tag)
	}
}

// BoundaryCommitByDate walks the branch history bounded by the date and
// returns the oldest (EdgeStart) or newest (EdgeEnd) commit in the window.
func (p *Provider) BoundaryCommitByDate(_ context.Context, repo, branch string, at time.Time, edge provider.Edge) (string, error) {
	tip, err := p.branchTip(branch)
	if err != nil {
		return "", err
	}

	logOpts := &git.LogOptions{From: tip}
	if edge == provider.EdgeStart {
		logOpts.Since = &at
	} else {
		logOpts.Until = &at
	}

	iter, err := p.repo.Log(logOpts)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Upstream, "walking history of "+branch)
	}
	defer iter.Close()

	// The log is newest first: the first commit answers the end edge, the
	// last one answers the start edge.
	var boundary string
	for {
		commit, err := iter.Next()
		if err != nil {
			break
		}
		boundary = commit.Hash.String()
		if edge == provider.EdgeEnd {
			break
		}
	}

	if boundary == "" {
		return "", apperr.New(apperr.NotFound,
			"no commits at the %s boundary %s on %s@%s",
			edge, at.Format("2006-01-02"), repo, branch).WithScope(repo, branch)
	}
	return boundary, nil
}

// DiffCommits returns the commits reachable from headRef but not baseRef,
// newest first. headRef may be the Head sentinel, meaning the checked-out tip.
func (p *Provider) DiffCommits(_ context.Context, repo, baseRef, headRef string) ([]provider.CommitRef, error) {
	baseCommit, err := p.lookupCommit(baseRef)
	if err != nil {
		return nil, apperr.New(apperr.NotFound,
			"cannot compare %s...%s in %s: base does not exist", baseRef, headRef, repo).WithScope(repo, "")
	}
	headCommit, err := p.lookupCommit(headRef)
	if err != nil {
		return nil, apperr.New(apperr.NotFound,
			"cannot compare %s...%s in %s: head does not exist", baseRef, headRef, repo).WithScope(repo, "")
	}

	excluded, err := ancestorSet(baseCommit)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "walking base history")
	}

	var refs []provider.CommitRef
	iter := object.NewCommitPreorderIter(headCommit, nil, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		if excluded[c.Hash] {
			return nil
		}
		refs = append(refs, provider.CommitRef{
			SHA:        c.Hash.String(),
			Message:    c.Message,
			AuthorName: c.Author.Name,
			AuthoredAt: c.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Upstream, "walking head history")
	}

	// Preorder traversal is not chronological across merge branches.
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].AuthoredAt.After(refs[j].AuthoredAt)
	})
	return refs, nil
}

// branchTip returns the hash of the branch tip, falling back to HEAD when the
// branch name is empty.
func (p *Provider) branchTip(branch string) (plumbing.Hash, error) {
	if branch == "" {
		head, err := p.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, apperr.Wrap(err, apperr.NotFound, "reading HEAD")
		}
		return head.Hash(), nil
	}

	ref, err := p.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return plumbing.ZeroHash, apperr.New(apperr.NotFound, "branch %q not found in %s", branch, p.path)
	}
	return ref.Hash(), nil
}

// lookupCommit resolves a SHA or the Head sentinel to a commit object.
func (p *Provider) lookupCommit(ref string) (*object.Commit, error) {
	if ref == provider.Head {
		head, err := p.repo.Head()
		if err != nil {
			return nil, err
		}
		return p.repo.CommitObject(head.Hash())
	}
	return p.repo.CommitObject(plumbing.NewHash(ref))
}

// ancestorSet collects a commit and all of its ancestors.
func ancestorSet(from *object.Commit) (map[plumbing.Hash]bool, error) {
	seen := make(map[plumbing.Hash]bool)
	iter := object.NewCommitPreorderIter(from, nil, nil)
	err := iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}
