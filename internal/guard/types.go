// Package guard implements the decision engine that evaluates proposed
// file modifications before an agent applies them.
//
// A proposal is classified into one of three operation kinds, its change
// percentage against the current file content is estimated, and the engine
// returns Allow, Warn, or Deny based on configured thresholds. Denied
// proposals receive a short-lived retry token so that a deliberate,
// byte-identical resubmission passes through exactly once.
package guard

import (
	"fmt"
	"os"
	"strings"
)

// Kind identifies the shape of a proposed file modification.
type Kind int

const (
	// KindUnknown is a tool the guard does not evaluate.
	KindUnknown Kind = iota

	// KindFullRewrite replaces the entire file content (Write).
	KindFullRewrite

	// KindSingleReplace replaces one old/new span pair (Edit).
	KindSingleReplace

	// KindMultiReplace applies an ordered sequence of span pairs (MultiEdit).
	KindMultiReplace
)

// String returns the tool-facing name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFullRewrite:
		return "Write"
	case KindSingleReplace:
		return "Edit"
	case KindMultiReplace:
		return "MultiEdit"
	default:
		return "unknown"
	}
}

// Span is one old -> new replacement pair within a file.
type Span struct {
	Old string
	New string
}

// Operation describes a single proposed modification. Immutable once built.
type Operation struct {
	// Path is the absolute path of the target file.
	Path string

	// Kind selects which payload field is meaningful.
	Kind Kind

	// Content is the full replacement content for KindFullRewrite.
	Content string

	// Spans holds the ordered replacement pairs for KindSingleReplace
	// (exactly one) and KindMultiReplace.
	Spans []Span
}

// ExistingFile is a snapshot of the target file, read once per decision.
type ExistingFile struct {
	Path      string
	Content   string
	LineCount int
	ByteCount int
}

// ReadExistingFile loads a snapshot of path for a single decision.
func ReadExistingFile(path string) (*ExistingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)
	return &ExistingFile{
		Path:      path,
		Content:   content,
		LineCount: len(splitLines(content)),
		ByteCount: len(data),
	}, nil
}

// Verdict is the outcome of one decision.
type Verdict int

const (
	// Allow lets the operation proceed silently.
	Allow Verdict = iota

	// Warn lets the operation proceed but flags it.
	Warn

	// Deny blocks the operation pending a matching retry.
	Deny
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	default:
		return "deny"
	}
}

// Decision is the result of evaluating one proposal. Not persisted.
type Decision struct {
	Verdict Verdict

	// Percent is the estimated change percentage, always in [0,100].
	Percent int

	// Message is empty for silent allows; otherwise a human-readable
	// advisory (Warn) or block report (Deny).
	Message string
}

// splitLines splits content into lines without a trailing empty line for
// newline-terminated content.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
