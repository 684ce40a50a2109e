// Package draft turns an ordered commit list into a categorized,
// SHA-cited markdown changelog using an injected text generator.
package draft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shiplog-io/shiplog/internal/apperr"
	"github.com/shiplog-io/shiplog/internal/provider"
)

// Generator is the pluggable text-generation capability. internal/openai
// implements it; tests inject fakes.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Engine drafts changelog documents. It is stateless between calls; the same
// input may yield different (though constrained) output because the generator
// is non-deterministic.
type Engine struct {
	generator Generator
}

// NewEngine creates a drafting engine around the given generator.
func NewEngine(g Generator) *Engine {
	return &Engine{generator: g}
}

// Draft produces a markdown changelog for the commits. The caller guarantees
// commits is non-empty; emptiness is rejected upstream, so hitting it here is
// a programming error surfaced as Validation.
//
// A generator that fails outright is a Generation error. A generator that
// succeeds but produces no usable content yields the fallback document
// instead: the pipeline keeps moving, with the failure visible in the output.
func (e *Engine) Draft(ctx context.Context, commits []provider.CommitRef) (string, error) {
	if len(commits) == 0 {
		return "", apperr.New(apperr.Validation, "cannot draft a changelog from zero commits")
	}

	latest := latestAuthoredAt(commits)
	out, err := e.generator.Generate(ctx, systemPrompt, buildUserPrompt(commits, latest))
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return fallbackDocument(commits, latest), nil
	}
	return out, nil
}

// latestAuthoredAt returns the newest author timestamp in the list; the
// drafted heading is dated with it.
func latestAuthoredAt(commits []provider.CommitRef) time.Time {
	latest := commits[0].AuthoredAt
	for _, c := range commits[1:] {
		if c.AuthoredAt.After(latest) {
			latest = c.AuthoredAt
		}
	}
	return latest
}

// fallbackDocument is the minimal draft returned when generation produced no
// content. The failure is stated in the body, not hidden.
func fallbackDocument(commits []provider.CommitRef, latest time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Release Notes — %s\n\n", latest.Format("2006-01-02"))
	b.WriteString("Changelog generation failed to produce content. ")
	b.WriteString("The commits below are listed without summaries; edit before publishing.\n\n")
	for _, c := range commits {
		fmt.Fprintf(&b, "- `%s` %s\n", c.ShortSHA(), summaryLine(c.Message))
	}
	return b.String()
}
