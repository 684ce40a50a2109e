// Package store persists published changelog records. Records are
// append-only by intent: insert and a markdown-only edit are the only write
// paths, and nothing here deletes.
package store

import (
	"context"
	"time"

	"github.com/shiplog-io/shiplog/internal/provider"
)

// ReleaseRecord is one published changelog. Immutable after insert except for
// the markdown body; CommitSHAs never changes and is the overlap key for the
// (Repo, Branch) scope.
type ReleaseRecord struct {
	ID          string    `json:"id"`
	Repo        string    `json:"repo"`
	Branch      string    `json:"branch"`
	Mode        string    `json:"mode"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	BaseSHA     string    `json:"baseSha"`
	HeadSHA     string    `json:"headSha"`
	BaseTag     string    `json:"baseTag,omitempty"`
	HeadTag     string    `json:"headTag,omitempty"`
	Markdown    string    `json:"markdown"`
	CommitSHAs  []string  `json:"commitShas"`
	PublishedAt time.Time `json:"publishedAt"`
}

// RangeDisplay renders the human-readable range for the record's mode:
// the date window, the tag pair, or the short-SHA pair.
func (r ReleaseRecord) RangeDisplay() string {
	switch r.Mode {
	case "date":
		return r.StartDate + " to " + r.EndDate
	case "tag":
		return r.BaseTag + ".." + r.HeadTag
	default:
		return provider.ShortSHA(r.BaseSHA) + ".." + provider.ShortSHA(r.HeadSHA)
	}
}

// Tag returns the head tag when the record was published from tag mode,
// otherwise "".
func (r ReleaseRecord) Tag() string {
	if r.Mode == "tag" {
		return r.HeadTag
	}
	return ""
}

// Store is the persistence contract for published changelogs. There is no
// delete: removal, if it ever happens, is an administrative concern outside
// this interface.
type Store interface {
	// ListByRepo returns the records for a repo ordered by PublishedAt
	// descending. An empty branch matches every branch of the repo.
	ListByRepo(ctx context.Context, repo, branch string) ([]ReleaseRecord, error)

	// Insert persists a new record. ID and PublishedAt are assigned here;
	// values supplied by the caller are ignored. The record must carry at
	// least one commit SHA.
	Insert(ctx context.Context, rec ReleaseRecord) (ReleaseRecord, error)

	// UpdateMarkdown replaces the markdown body of an existing record. It is
	// the only mutation path and never touches CommitSHAs.
	UpdateMarkdown(ctx context.Context, id, markdown string) (ReleaseRecord, error)
}
