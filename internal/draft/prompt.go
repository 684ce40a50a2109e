package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/shiplog-io/shiplog/internal/provider"
)

// Categories are the only section headings a drafted changelog may contain.
// Sections with no content are omitted.
var Categories = []string{
	"New Features",
	"Improvements",
	"Bug Fixes",
	"Internal Changes",
}

// systemPrompt fixes the document contract: structure, citations, and an
// objective register. Tone is constrained here and by low sampling
// temperature, not validated after the fact.
const systemPrompt = `You are a release-notes writer for software repositories.
Write objective, formal changelog entries. No marketing language, no emoji,
no first person. Summarize what changed and why it matters to users of the
project, based only on the commits you are given.

Output rules:
- Start with exactly one top-level markdown heading of the form
  "# Release Notes — <date>" using the date you are given.
- Group bullets under at most these four second-level headings, in this
  order, omitting any heading with no content: New Features, Improvements,
  Bug Fixes, Internal Changes. Use no other headings.
- Every bullet must cite at least one contributing commit by its short SHA
  in backticks, for example (` + "`a1b2c3d`" + `).
- Do not invent changes that are not supported by a commit.`

// buildUserPrompt formats the commit evidence for the generator, newest
// first, the way the resolver produced it.
func buildUserPrompt(commits []provider.CommitRef, latest time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Draft release notes dated %s for the following %d commits.\n\n",
		latest.Format("2006-01-02"), len(commits))
	b.WriteString("Commits (newest first):\n")
	for _, c := range commits {
		fmt.Fprintf(&b, "- %s by %s on %s: %s\n",
			c.ShortSHA(),
			valueOr(c.AuthorName, "unknown"),
			c.AuthoredAt.Format("2006-01-02"),
			summaryLine(c.Message))
	}
	return b.String()
}

// summaryLine returns the first line of a commit message.
func summaryLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		message = message[:idx]
	}
	return strings.TrimSpace(message)
}

func valueOr(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
