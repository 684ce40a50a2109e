package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiplog-io/shiplog/internal/apperr"
)

// MemoryStore is an in-process Store. It backs tests and lets the CLI draft
// changelogs when no database is configured (an empty store means the overlap
// check always passes).
type MemoryStore struct {
	mu      sync.RWMutex
	records []ReleaseRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// SetClock overrides the PublishedAt clock, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

// ListByRepo returns records for the repo (and branch, when non-empty),
// newest first.
func (s *MemoryStore) ListByRepo(_ context.Context, repo, branch string) ([]ReleaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ReleaseRecord
	for _, rec := range s.records {
		if rec.Repo != repo {
			continue
		}
		if branch != "" && rec.Branch != branch {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

// Insert assigns an ID and timestamp and stores the record.
func (s *MemoryStore) Insert(_ context.Context, rec ReleaseRecord) (ReleaseRecord, error) {
	if len(rec.CommitSHAs) == 0 {
		return ReleaseRecord{}, apperr.New(apperr.Validation,
			"refusing to persist a release with no commit SHAs").WithScope(rec.Repo, rec.Branch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.PublishedAt = s.now().UTC()
	s.records = append(s.records, cloneRecord(rec))
	return rec, nil
}

// UpdateMarkdown replaces the markdown body of the record with the given id.
func (s *MemoryStore) UpdateMarkdown(_ context.Context, id, markdown string) (ReleaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Markdown = markdown
			return cloneRecord(s.records[i]), nil
		}
	}
	return ReleaseRecord{}, apperr.New(apperr.NotFound, "release %s not found", id)
}

func cloneRecord(rec ReleaseRecord) ReleaseRecord {
	out := rec
	out.CommitSHAs = append([]string(nil), rec.CommitSHAs...)
	return out
}
