// Package provider defines the commit-history provider contract that range
// resolution builds on. Two implementations exist: internal/github talks to
// the GitHub REST API, internal/localgit walks an on-disk clone.
package provider

import (
	"context"
	"time"
)

// Head is the sentinel ref meaning "tip of branch". It is passed through to
// the diff call unresolved; it is never a real SHA.
const Head = "HEAD"

// Edge selects which side of a date window a boundary lookup targets.
type Edge int

const (
	// EdgeStart selects the oldest commit at or after the date.
	EdgeStart Edge = iota
	// EdgeEnd selects the newest commit at or before the date.
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeStart {
		return "start"
	}
	return "end"
}

// CommitRef is one commit as reported by the provider. Immutable; only the
// SHA outlives a request.
type CommitRef struct {
	SHA        string
	Message    string
	AuthorName string
	AuthoredAt time.Time
}

// ShortSHA returns the first seven characters of the commit SHA, the form
// used for citations in drafted changelogs.
func (c CommitRef) ShortSHA() string {
	return ShortSHA(c.SHA)
}

// ShortSHA shortens a full SHA to its seven-character citation form.
func ShortSHA(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}

// Provider is the commit-history source for a hosted or local repository.
// Implementations classify failures with apperr kinds: NotFound for missing
// refs or empty windows, Upstream for transport failures.
type Provider interface {
	// ResolveTag resolves a tag name to the SHA of the commit it points at.
	// Annotated tags are dereferenced to the underlying commit object; the
	// intermediate tag-object SHA is never returned.
	ResolveTag(ctx context.Context, repo, tag string) (string, error)

	// BoundaryCommitByDate finds the commit bounding a date window on a branch.
	// EdgeStart returns the oldest commit at or after the date; EdgeEnd returns
	// the newest commit at or before it.
	BoundaryCommitByDate(ctx context.Context, repo, branch string, at time.Time, edge Edge) (string, error)

	// DiffCommits returns the commits reachable from headRef but not baseRef
	// (compare semantics), newest first, inclusive of head and exclusive of
	// base. headRef may be the Head sentinel.
	DiffCommits(ctx context.Context, repo, baseRef, headRef string) ([]CommitRef, error)
}
