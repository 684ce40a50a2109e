// Package progress provides terminal-aware progress indicators.
package progress

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// TerminalCapabilities describes what the attached terminal supports.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// Symbols is the symbol set chosen for the current terminal.
type Symbols struct {
	Checkmark  string
	Failure    string
	SpinnerSet int
}

// DetectTerminalCapabilities detects terminal features.
// Checks: stdout isatty, NO_COLOR env, SHIPLOG_ASCII env, terminal width.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("SHIPLOG_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols returns the appropriate symbol set for the terminal.
// Unicode: ✓/✗ with braille spinner (set 14). ASCII: [OK]/[FAIL] with |/-\
// spinner (set 9).
func SelectSymbols(caps TerminalCapabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{
			Checkmark:  "✓",
			Failure:    "✗",
			SpinnerSet: 14,
		}
	}

	return Symbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		SpinnerSet: 9,
	}
}

// Indicator is a spinner that degrades to silence on non-terminals so piped
// output stays clean.
type Indicator struct {
	spinner *spinner.Spinner
	symbols Symbols
}

// NewIndicator builds an indicator for the current terminal with the given
// suffix message.
func NewIndicator(message string) *Indicator {
	caps := DetectTerminalCapabilities()
	symbols := SelectSymbols(caps)
	ind := &Indicator{symbols: symbols}

	if caps.IsTTY {
		ind.spinner = spinner.New(spinner.CharSets[symbols.SpinnerSet], 100*time.Millisecond)
		ind.spinner.Suffix = " " + message
	}
	return ind
}

// Start begins animating. No-op without a TTY.
func (i *Indicator) Start() {
	if i.spinner != nil {
		i.spinner.Start()
	}
}

// Stop halts the animation and clears the line. No-op without a TTY.
func (i *Indicator) Stop() {
	if i.spinner != nil {
		i.spinner.Stop()
	}
}

// Checkmark returns the success symbol for this terminal.
func (i *Indicator) Checkmark() string { return i.symbols.Checkmark }

// Failure returns the failure symbol for this terminal.
func (i *Indicator) Failure() string { return i.symbols.Failure }
