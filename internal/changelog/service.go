// Package changelog coordinates the full pipeline: resolve a commit range,
// check it against published history, draft the document, and persist it.
package changelog

import (
	"context"
	"regexp"
	"strings"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/draft"
	"github.com/shiplog-io/shiplog/internal/overlap"
	"github.com/shiplog-io/shiplog/internal/resolve"
	"github.com/shiplog-io/shiplog/internal/store"
)

// repoPattern matches "owner/name" repository identifiers.
var repoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)

// Service runs the changelog pipeline. All collaborators are injected; the
// CLI and the HTTP server share one construction path.
type Service struct {
	resolver *resolve.Resolver
	detector *overlap.Detector
	engine   *draft.Engine
	store    store.Store
}

// NewService assembles the pipeline.
func NewService(resolver *resolve.Resolver, detector *overlap.Detector, engine *draft.Engine, st store.Store) *Service {
	return &Service{
		resolver: resolver,
		detector: detector,
		engine:   engine,
		store:    st,
	}
}

// Request identifies the repository scope and range for one pipeline run.
type Request struct {
	Repo   string
	Branch string
	Spec   resolve.RangeSpec
}

// Draft is a generated changelog that has not been published. It carries the
// resolved range so Publish can persist the exact commit set it was drafted
// from.
type Draft struct {
	Repo     string
	Branch   string
	Spec     resolve.RangeSpec
	Range    resolve.ResolvedRange
	Markdown string
}

// validate rejects malformed requests before any network work happens.
func (r Request) validate() error {
	if !repoPattern.MatchString(r.Repo) {
		return apperr.New(apperr.Validation, "repository must be in owner/name form, got %q", r.Repo)
	}
	if strings.TrimSpace(r.Branch) == "" {
		return apperr.New(apperr.Validation, "branch is required")
	}
	if r.Spec == nil {
		return apperr.New(apperr.Validation, "a commit range is required")
	}
	return nil
}

// Resolve canonicalizes the range and verifies it does not overlap published
// history. The returned draft has no markdown yet; callers supplying their
// own reviewed text use this to obtain the commit set without paying for a
// generation call.
func (s *Service) Resolve(ctx context.Context, req Request) (*Draft, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	mode := string(req.Spec.Mode())

	rng, err := s.resolver.Resolve(ctx, req.Repo, req.Branch, req.Spec)
	if err != nil {
		return nil, scoped(err, req, mode)
	}

	if err := s.detector.Check(ctx, req.Repo, req.Branch, rng.SHASet()); err != nil {
		return nil, err
	}

	return &Draft{
		Repo:   req.Repo,
		Branch: req.Branch,
		Spec:   req.Spec,
		Range:  *rng,
	}, nil
}

// Generate resolves the range, verifies it does not overlap published
// history, and drafts the changelog. Nothing is persisted.
func (s *Service) Generate(ctx context.Context, req Request) (*Draft, error) {
	d, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	markdown, err := s.engine.Draft(ctx, d.Range.Commits)
	if err != nil {
		return nil, scoped(err, req, string(req.Spec.Mode()))
	}
	d.Markdown = markdown
	return d, nil
}

// Publication is a reviewed draft submitted for persistence. It names the
// exact commit set the draft was resolved from; publishing never re-resolves
// the range and never re-drafts the text.
type Publication struct {
	Repo       string
	Branch     string
	Mode       string
	BaseSHA    string
	HeadSHA    string
	Markdown   string
	CommitSHAs []string

	// Original range parameters, kept so the record displays the range the
	// way it was requested. Only the fields matching Mode are persisted.
	StartDate string
	EndDate   string
	BaseTag   string
	HeadTag   string
}

// validate rejects publications that would persist a malformed record.
func (p Publication) validate() error {
	if !repoPattern.MatchString(p.Repo) {
		return apperr.New(apperr.Validation, "repository must be in owner/name form, got %q", p.Repo)
	}
	if strings.TrimSpace(p.Branch) == "" {
		return apperr.New(apperr.Validation, "branch is required")
	}
	switch p.Mode {
	case "date", "sha", "tag":
	default:
		return apperr.New(apperr.Validation, "unknown mode %q", p.Mode)
	}
	if p.BaseSHA == "" || p.HeadSHA == "" {
		return apperr.New(apperr.Validation, "base and head SHAs are required")
	}
	if strings.TrimSpace(p.Markdown) == "" {
		return apperr.New(apperr.Validation, "cannot publish an incomplete draft")
	}
	if len(p.CommitSHAs) == 0 {
		return apperr.New(apperr.Validation, "commit SHA set must be non-empty")
	}
	return nil
}

// PublishReviewed persists a reviewed draft. The overlap check runs again
// immediately before the insert because published history may have changed
// since the draft was resolved; two concurrent publishes of intersecting
// ranges can still both pass the check, since the store does not serialize
// check-then-insert. Closing that window needs a store-side transaction and
// is not attempted here.
func (s *Service) PublishReviewed(ctx context.Context, p Publication) (store.ReleaseRecord, error) {
	if err := p.validate(); err != nil {
		return store.ReleaseRecord{}, err
	}

	candidate := make(map[string]struct{}, len(p.CommitSHAs))
	for _, sha := range p.CommitSHAs {
		candidate[sha] = struct{}{}
	}
	if err := s.detector.Check(ctx, p.Repo, p.Branch, candidate); err != nil {
		return store.ReleaseRecord{}, err
	}

	rec, err := s.store.Insert(ctx, store.ReleaseRecord{
		Repo:       p.Repo,
		Branch:     p.Branch,
		Mode:       p.Mode,
		BaseSHA:    p.BaseSHA,
		HeadSHA:    p.HeadSHA,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		BaseTag:    p.BaseTag,
		HeadTag:    p.HeadTag,
		Markdown:   p.Markdown,
		CommitSHAs: p.CommitSHAs,
	})
	if err != nil {
		return store.ReleaseRecord{}, apperr.Wrap(err, apperr.KindOf(err), "publishing changelog").
			WithScope(p.Repo, p.Branch).WithMode(p.Mode)
	}
	return rec, nil
}

// Publish persists a generated draft as-is.
func (s *Service) Publish(ctx context.Context, d *Draft) (store.ReleaseRecord, error) {
	if d == nil || d.Spec == nil {
		return store.ReleaseRecord{}, apperr.New(apperr.Validation, "cannot publish an incomplete draft")
	}
	return s.PublishReviewed(ctx, publicationFromDraft(d))
}

// List returns published changelogs for a repository, newest first. Branch
// narrows the scope when non-empty.
func (s *Service) List(ctx context.Context, repo, branch string) ([]store.ReleaseRecord, error) {
	if !repoPattern.MatchString(repo) {
		return nil, apperr.New(apperr.Validation, "repository must be in owner/name form, got %q", repo)
	}
	return s.store.ListByRepo(ctx, repo, branch)
}

// Amend replaces the markdown of a published changelog. The commit set is
// immutable; only the document text can change.
func (s *Service) Amend(ctx context.Context, id, markdown string) (store.ReleaseRecord, error) {
	if strings.TrimSpace(markdown) == "" {
		return store.ReleaseRecord{}, apperr.New(apperr.Validation, "replacement markdown is required")
	}
	return s.store.UpdateMarkdown(ctx, id, markdown)
}

// publicationFromDraft maps a draft onto the publication form, filling the
// mode-specific fields from the range spec.
func publicationFromDraft(d *Draft) Publication {
	p := Publication{
		Repo:       d.Repo,
		Branch:     d.Branch,
		Mode:       string(d.Spec.Mode()),
		BaseSHA:    d.Range.BaseSHA,
		HeadSHA:    d.Range.HeadSHA,
		Markdown:   d.Markdown,
		CommitSHAs: d.Range.CommitSHAs(),
	}

	switch spec := d.Spec.(type) {
	case resolve.DateRange:
		p.StartDate = spec.Start.Format("2006-01-02")
		p.EndDate = spec.End.Format("2006-01-02")
	case resolve.TagRange:
		p.BaseTag = spec.BaseTag
		p.HeadTag = spec.HeadTag
	}
	return p
}

// scoped attaches repository context to pipeline errors so the CLI and API
// can report where a failure happened.
func scoped(err error, req Request, mode string) error {
	appErr := apperr.As(err)
	if appErr == nil {
		appErr = apperr.Wrap(err, apperr.Storage, "running changelog pipeline")
	}
	return appErr.WithScope(req.Repo, req.Branch).WithMode(mode)
}
