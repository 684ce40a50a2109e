// Package overlap guards the pairwise-disjointness intent of published
// changelogs: within a (repo, branch) scope no two records should cover the
// same commit. Detection is best-effort at check time; the storage layer has
// no constraint backing it.
package overlap

import (
	"context"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/store"
)

// ReleaseSource is the read-only slice of the store the detector needs.
type ReleaseSource interface {
	ListByRepo(ctx context.Context, repo, branch string) ([]store.ReleaseRecord, error)
}

// Detector tests candidate commit sets against published records.
type Detector struct {
	releases ReleaseSource
}

// NewDetector creates a detector reading from the given source.
func NewDetector(releases ReleaseSource) *Detector {
	return &Detector{releases: releases}
}

// HasOverlap reports whether the candidate SHA set intersects any published
// record in the (repo, branch) scope. Short-circuits on the first hit; the
// O(records x set size) scan is fine at release cadence.
func (d *Detector) HasOverlap(ctx context.Context, repo, branch string, candidate map[string]struct{}) (bool, error) {
	conflict, err := d.FindConflict(ctx, repo, branch, candidate)
	if err != nil {
		return false, err
	}
	return conflict != nil, nil
}

// FindConflict returns the first published record whose commit set intersects
// the candidate, or nil when the candidate is disjoint from every record.
func (d *Detector) FindConflict(ctx context.Context, repo, branch string, candidate map[string]struct{}) (*store.ReleaseRecord, error) {
	records, err := d.releases.ListByRepo(ctx, repo, branch)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if intersects(candidate, records[i].CommitSHAs) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Check returns an OverlapConflict error when the candidate intersects a
// published record, nil otherwise. The error names the conflicting record so
// the caller can explain the block.
func (d *Detector) Check(ctx context.Context, repo, branch string, candidate map[string]struct{}) error {
	conflict, err := d.FindConflict(ctx, repo, branch, candidate)
	if err != nil {
		return err
	}
	if conflict != nil {
		return apperr.New(apperr.OverlapConflict,
			"range overlaps the changelog published %s covering %s",
			conflict.PublishedAt.Format("2006-01-02"), conflict.RangeDisplay()).
			WithScope(repo, branch).WithMode(conflict.Mode)
	}
	return nil
}

func intersects(candidate map[string]struct{}, shas []string) bool {
	for _, sha := range shas {
		if _, ok := candidate[sha]; ok {
			return true
		}
	}
	return false
}
