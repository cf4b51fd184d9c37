// Package scan holds the post-edit cleanup helpers: trailing-newline repair
// and non-ASCII character advisories. Everything here is best-effort glue;
// failures are reported, never fatal.
package scan

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Finding locates one non-ASCII rune in scanned content.
type Finding struct {
	// Line and Column are 1-based; Column counts runes, not bytes.
	Line   int
	Column int
	Rune   rune
}

// String renders a finding as an advisory fragment.
func (f Finding) String() string {
	name := fmt.Sprintf("%q", f.Rune)
	if !unicode.IsPrint(f.Rune) {
		name = fmt.Sprintf("U+%04X", f.Rune)
	}
	return fmt.Sprintf("line %d col %d: %s", f.Line, f.Column, name)
}

// EnsureTrailingNewline appends a final newline to the file at path when it
// lacks one. Reports whether the file was modified.
func EnsureTrailingNewline(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// FindNonASCII reports every rune outside the printable ASCII range plus
// tab and newline. Carriage returns are tolerated so CRLF files do not
// flood the report.
func FindNonASCII(content string) []Finding {
	var findings []Finding
	for lineNo, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		col := 0
		for _, r := range line {
			col++
			if r == '\t' {
				continue
			}
			if r < 0x20 || r > 0x7e {
				findings = append(findings, Finding{Line: lineNo + 1, Column: col, Rune: r})
			}
		}
	}
	return findings
}
