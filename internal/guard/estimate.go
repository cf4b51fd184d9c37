package guard

import "errors"

// Sentinel errors for estimation. Callers treat both as "cannot estimate,
// allow by default" rather than as fatal conditions.
var (
	// ErrEmptyFile is returned when the existing file has no content to
	// compare against.
	ErrEmptyFile = errors.New("existing file is empty")

	// ErrUnsupportedKind is returned for operations the estimator does not
	// understand.
	ErrUnsupportedKind = errors.New("unsupported operation kind")
)

// Estimate computes the percentage of existing that op would change,
// clamped to [0,100].
func Estimate(existing *ExistingFile, op Operation) (int, error) {
	if existing.ByteCount == 0 || existing.LineCount == 0 {
		return 0, ErrEmptyFile
	}

	switch op.Kind {
	case KindFullRewrite:
		return estimateFullRewrite(existing, op.Content), nil
	case KindSingleReplace, KindMultiReplace:
		return estimateReplace(existing, op.Spans), nil
	default:
		return 0, ErrUnsupportedKind
	}
}

// estimateFullRewrite counts existing lines that reappear, in order, in the
// proposed content. This is a cheap containment scan, deliberately not a
// longest-common-subsequence: duplicate or reordered lines can over- or
// under-count, and the thresholds are calibrated against that.
func estimateFullRewrite(existing *ExistingFile, newContent string) int {
	oldLines := splitLines(existing.Content)
	newLines := splitLines(newContent)

	unchanged := 0
	cursor := 0
	for _, line := range oldLines {
		// Advance the cursor only past a successful match so a missing
		// line does not desynchronize later matches.
		if at := indexFrom(newLines, cursor, line); at >= 0 {
			unchanged++
			cursor = at + 1
		}
	}

	changed := 100 - unchanged*100/len(oldLines)
	return clampPercent(changed)
}

// estimateReplace sums the byte lengths of the old spans against the file
// size. Overlapping spans are not de-duplicated; the overstatement is
// intentional and conservative.
func estimateReplace(existing *ExistingFile, spans []Span) int {
	total := 0
	for _, s := range spans {
		total += len(s.Old)
	}
	return clampPercent(total * 100 / existing.ByteCount)
}

// indexFrom returns the first index >= start where lines[i] == want, or -1.
func indexFrom(lines []string, start int, want string) int {
	for i := start; i < len(lines); i++ {
		if lines[i] == want {
			return i
		}
	}
	return -1
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
