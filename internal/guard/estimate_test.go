package guard

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// numberedLines builds newline-terminated content of n distinct lines.
func numberedLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "line %03d\n", i)
	}
	return b.String()
}

func existingFromContent(content string) *ExistingFile {
	return &ExistingFile{
		Path:      "/tmp/file.go",
		Content:   content,
		LineCount: len(splitLines(content)),
		ByteCount: len(content),
	}
}

func TestEstimate_FullRewriteIdentical(t *testing.T) {
	content := numberedLines(50)
	existing := existingFromContent(content)

	got, err := Estimate(existing, Operation{Kind: KindFullRewrite, Content: content})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if got != 0 {
		t.Errorf("identical rewrite percent = %d, want 0", got)
	}
}

func TestEstimate_FullRewriteDisjoint(t *testing.T) {
	existing := existingFromContent(numberedLines(30))
	replacement := strings.Repeat("totally new\n", 30)

	got, err := Estimate(existing, Operation{Kind: KindFullRewrite, Content: replacement})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if got != 100 {
		t.Errorf("disjoint rewrite percent = %d, want 100", got)
	}
}

func TestEstimate_FullRewritePartialKeep(t *testing.T) {
	// 100-line file; the proposal keeps the first 40 lines and appends 60
	// new ones: 60% changed.
	old := numberedLines(100)
	oldLines := splitLines(old)
	newContent := strings.Join(oldLines[:40], "\n") + "\n" + strings.Repeat("fresh\n", 60)

	existing := existingFromContent(old)
	got, err := Estimate(existing, Operation{Kind: KindFullRewrite, Content: newContent})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if got != 60 {
		t.Errorf("partial rewrite percent = %d, want 60", got)
	}
}

func TestEstimate_FullRewriteMissingLineDoesNotDesync(t *testing.T) {
	// Dropping one middle line must not stop later lines from matching.
	old := "a\nb\nc\nd\n"
	newContent := "a\nc\nd\n"

	existing := existingFromContent(old)
	got, err := Estimate(existing, Operation{Kind: KindFullRewrite, Content: newContent})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	// 3 of 4 lines unchanged -> 100 - 75 = 25.
	if got != 25 {
		t.Errorf("percent = %d, want 25", got)
	}
}

func TestEstimate_SingleReplace(t *testing.T) {
	tests := []struct {
		name    string
		content string
		oldSpan string
		want    int
	}{
		{
			name:    "entire content",
			content: numberedLines(25),
			oldSpan: numberedLines(25),
			want:    100,
		},
		{
			name:    "small span floors",
			content: strings.Repeat("x", 300),
			oldSpan: strings.Repeat("x", 10),
			want:    3,
		},
		{
			name:    "empty span",
			content: numberedLines(10),
			oldSpan: "",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := existingFromContent(tt.content)
			op := Operation{Kind: KindSingleReplace, Spans: []Span{{Old: tt.oldSpan, New: "replacement"}}}

			got, err := Estimate(existing, op)
			if err != nil {
				t.Fatalf("Estimate returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("percent = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimate_MultiReplaceSumsSpans(t *testing.T) {
	existing := existingFromContent(strings.Repeat("y", 200))
	op := Operation{Kind: KindMultiReplace, Spans: []Span{
		{Old: strings.Repeat("y", 30), New: "a"},
		{Old: strings.Repeat("y", 50), New: "b"},
	}}

	got, err := Estimate(existing, op)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if got != 40 {
		t.Errorf("percent = %d, want 40", got)
	}
}

func TestEstimate_MultiReplaceOverlapClamps(t *testing.T) {
	// Overlapping spans are summed without de-duplication, so the nominal
	// result can exceed 100 and must clamp.
	existing := existingFromContent(strings.Repeat("z", 100))
	span := Span{Old: strings.Repeat("z", 80), New: "q"}
	op := Operation{Kind: KindMultiReplace, Spans: []Span{span, span}}

	got, err := Estimate(existing, op)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if got != 100 {
		t.Errorf("percent = %d, want 100 (clamped)", got)
	}
}

func TestEstimate_EmptyFile(t *testing.T) {
	existing := existingFromContent("")
	_, err := Estimate(existing, Operation{Kind: KindFullRewrite, Content: "anything"})
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Estimate error = %v, want ErrEmptyFile", err)
	}
}

func TestEstimate_UnknownKind(t *testing.T) {
	existing := existingFromContent(numberedLines(5))
	_, err := Estimate(existing, Operation{Kind: KindUnknown})
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("Estimate error = %v, want ErrUnsupportedKind", err)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"single terminated", "a\n", 1},
		{"single unterminated", "a", 1},
		{"three terminated", "a\nb\nc\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(splitLines(tt.content)); got != tt.want {
				t.Errorf("splitLines(%q) len = %d, want %d", tt.content, got, tt.want)
			}
		})
	}
}
