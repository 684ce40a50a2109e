// Package resolve normalizes the three range input modes (date window, tag
// pair, SHA pair) into one canonical shape: a {baseSha, headSha} pair plus the
// ordered commit list between them. Collapsing the modes here is what lets
// overlap detection stay mode-agnostic.
package resolve

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/provider"
)

// Mode identifies which range input shape a request used.
type Mode string

const (
	ModeDate Mode = "date"
	ModeSHA  Mode = "sha"
	ModeTag  Mode = "tag"
)

// RangeSpec is the validated input-mode union. Exactly one concrete type per
// mode; construction rejects incomplete input so no unvalidated spec exists.
type RangeSpec interface {
	Mode() Mode
	rangeSpec()
}

// DateRange selects commits between two dates on a branch. Both bounds are
// mandatory.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (DateRange) Mode() Mode { return ModeDate }
func (DateRange) rangeSpec() {}

// TagRange selects commits between two tags. HeadTag defaults to the Head
// sentinel, meaning tip of branch.
type TagRange struct {
	BaseTag string
	HeadTag string
}

func (TagRange) Mode() Mode { return ModeTag }
func (TagRange) rangeSpec() {}

// ShaRange selects commits between two raw SHAs. HeadSHA defaults to the Head
// sentinel. No format validation beyond non-empty; the provider is the judge
// of what exists.
type ShaRange struct {
	BaseSHA string
	HeadSHA string
}

func (ShaRange) Mode() Mode { return ModeSHA }
func (ShaRange) rangeSpec() {}

// dateLayout is the accepted wire format for date-mode bounds.
const dateLayout = "2006-01-02"

// NewDateRange validates and constructs a date-mode spec. Both dates are
// required; end must not precede start.
func NewDateRange(start, end string) (DateRange, error) {
	if start == "" || end == "" {
		return DateRange{}, apperr.New(apperr.Validation,
			"date mode requires both start and end dates").WithMode(string(ModeDate))
	}
	startAt, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, apperr.New(apperr.Validation,
			"invalid start date %q: expected YYYY-MM-DD", start).WithMode(string(ModeDate))
	}
	endAt, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, apperr.New(apperr.Validation,
			"invalid end date %q: expected YYYY-MM-DD", end).WithMode(string(ModeDate))
	}
	if endAt.Before(startAt) {
		return DateRange{}, apperr.New(apperr.Validation,
			"end date %s precedes start date %s", end, start).WithMode(string(ModeDate))
	}
	// The end bound covers the whole day.
	endAt = endAt.Add(24*time.Hour - time.Second)
	return DateRange{Start: startAt, End: endAt}, nil
}

// NewTagRange validates and constructs a tag-mode spec.
func NewTagRange(baseTag, headTag string) (TagRange, error) {
	if baseTag == "" {
		return TagRange{}, apperr.New(apperr.Validation,
			"tag mode requires a base tag").WithMode(string(ModeTag))
	}
	if headTag == "" {
		headTag = provider.Head
	}
	return TagRange{BaseTag: baseTag, HeadTag: headTag}, nil
}

// NewShaRange validates and constructs a SHA-mode spec.
func NewShaRange(baseSHA, headSHA string) (ShaRange, error) {
	if baseSHA == "" {
		return ShaRange{}, apperr.New(apperr.Validation,
			"sha mode requires a base commit SHA").WithMode(string(ModeSHA))
	}
	if headSHA == "" {
		headSHA = provider.Head
	}
	return ShaRange{BaseSHA: baseSHA, HeadSHA: headSHA}, nil
}

// ParseSpec builds a RangeSpec from loose transport-level fields. The mode tag
// decides which fields are required; unknown modes are rejected rather than
// silently ignored.
func ParseSpec(mode, start, end, base, head string) (RangeSpec, error) {
	switch Mode(mode) {
	case ModeDate:
		return NewDateRange(start, end)
	case ModeTag:
		return NewTagRange(base, head)
	case ModeSHA:
		return NewShaRange(base, head)
	default:
		return nil, apperr.New(apperr.Validation,
			"unknown mode %q: expected date, sha, or tag", mode)
	}
}

// ResolvedRange is the canonical form every mode converges to. Commits is
// newest first as returned by the diff; the SHA set is the order-independent
// key used for overlap comparison.
type ResolvedRange struct {
	BaseSHA string
	HeadSHA string
	Commits []provider.CommitRef
}

// CommitSHAs returns the SHAs of the resolved commits, newest first.
func (r *ResolvedRange) CommitSHAs() []string {
	shas := make([]string, len(r.Commits))
	for i, c := range r.Commits {
		shas[i] = c.SHA
	}
	return shas
}

// SHASet returns the resolved commits as a set.
func (r *ResolvedRange) SHASet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Commits))
	for _, c := range r.Commits {
		set[c.SHA] = struct{}{}
	}
	return set
}

// Resolver converts RangeSpecs into ResolvedRanges using a commit-history
// provider.
type Resolver struct {
	provider provider.Provider
}

// NewResolver creates a resolver backed by the given provider.
func NewResolver(p provider.Provider) *Resolver {
	return &Resolver{provider: p}
}

// Resolve normalizes spec into the canonical range for (repo, branch). The
// returned range always holds at least one commit; an empty diff is surfaced
// as a mode-specific empty-range failure.
func (r *Resolver) Resolve(ctx context.Context, repo, branch string, spec RangeSpec) (*ResolvedRange, error) {
	baseRef, headRef, err := r.endpoints(ctx, repo, branch, spec)
	if err != nil {
		return nil, err
	}

	commits, err := r.provider.DiffCommits(ctx, repo, baseRef, headRef)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, emptyRangeError(spec, baseRef, headRef).WithScope(repo, branch)
	}

	return &ResolvedRange{BaseSHA: baseRef, HeadSHA: headRef, Commits: commits}, nil
}

// endpoints reduces the spec to a {base, head} ref pair. headRef may remain
// the literal Head sentinel when the spec left it unspecified.
func (r *Resolver) endpoints(ctx context.Context, repo, branch string, spec RangeSpec) (string, string, error) {
	switch s := spec.(type) {
	case DateRange:
		// The two boundary lookups are independent; resolve them concurrently.
		var baseRef, headRef string
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			sha, err := r.provider.BoundaryCommitByDate(gctx, repo, branch, s.Start, provider.EdgeStart)
			if err != nil {
				return err
			}
			baseRef = sha
			return nil
		})
		g.Go(func() error {
			sha, err := r.provider.BoundaryCommitByDate(gctx, repo, branch, s.End, provider.EdgeEnd)
			if err != nil {
				return err
			}
			headRef = sha
			return nil
		})
		if err := g.Wait(); err != nil {
			return "", "", err
		}
		return baseRef, headRef, nil

	case TagRange:
		baseRef, err := r.provider.ResolveTag(ctx, repo, s.BaseTag)
		if err != nil {
			return "", "", err
		}
		headRef := s.HeadTag
		if headRef != provider.Head {
			headRef, err = r.provider.ResolveTag(ctx, repo, s.HeadTag)
			if err != nil {
				return "", "", err
			}
		}
		return baseRef, headRef, nil

	case ShaRange:
		return s.BaseSHA, s.HeadSHA, nil

	default:
		return "", "", apperr.New(apperr.Validation, "unsupported range spec %T", spec)
	}
}

// emptyRangeError builds the mode-specific failure for a diff with no commits.
func emptyRangeError(spec RangeSpec, baseRef, headRef string) *apperr.Error {
	switch s := spec.(type) {
	case DateRange:
		return apperr.New(apperr.NotFound,
			"no commits between %s and %s",
			s.Start.Format(dateLayout), s.End.Format(dateLayout)).WithMode(string(ModeDate))
	case TagRange:
		return apperr.New(apperr.NotFound,
			"no commits between tags %s and %s", s.BaseTag, s.HeadTag).WithMode(string(ModeTag))
	default:
		return apperr.New(apperr.NotFound,
			"no commits between %s and %s", baseRef, headRef).WithMode(string(ModeSHA))
	}
}
