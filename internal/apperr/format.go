package apperr

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Color functions with auto-detection for terminal support.
	// These fall back gracefully when colors are unavailable.
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	errorMsg   = color.New(color.FgRed).SprintFunc()
	kindFmt    = color.New(color.FgYellow).SprintFunc()
	scopeFmt   = color.New(color.FgCyan).SprintFunc()
)

// Format renders an *Error for terminal display, colored when supported.
func Format(err *Error) string {
	if err == nil {
		return ""
	}
	return format(err, true)
}

// FormatPlain renders an *Error without colors.
func FormatPlain(err *Error) string {
	if err == nil {
		return ""
	}
	return format(err, false)
}

func format(err *Error, useColors bool) string {
	var sb strings.Builder

	if useColors {
		sb.WriteString(errorLabel("Error"))
		sb.WriteString(" [")
		sb.WriteString(kindFmt(err.Kind.String()))
		sb.WriteString("]: ")
		sb.WriteString(errorMsg(err.Error()))
	} else {
		sb.WriteString("Error [")
		sb.WriteString(err.Kind.String())
		sb.WriteString("]: ")
		sb.WriteString(err.Error())
	}
	sb.WriteString("\n")

	if scope := formatScope(err); scope != "" {
		if useColors {
			sb.WriteString(scopeFmt(scope))
		} else {
			sb.WriteString(scope)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatScope renders the attached request context, one line, or "" when empty.
func formatScope(err *Error) string {
	parts := make([]string, 0, 3)
	if err.Repo != "" {
		repo := err.Repo
		if err.Branch != "" {
			repo = repo + "@" + err.Branch
		}
		parts = append(parts, "repo "+repo)
	}
	if err.Mode != "" {
		parts = append(parts, "mode "+err.Mode)
	}
	if len(parts) == 0 {
		return ""
	}
	return "  (" + strings.Join(parts, ", ") + ")"
}

// Print writes a formatted *Error to stderr.
func Print(err *Error) {
	Fprint(os.Stderr, err)
}

// Fprint writes a formatted *Error to the given writer.
func Fprint(w io.Writer, err *Error) {
	if err == nil {
		return
	}
	fmt.Fprint(w, Format(err))
}
