package util

import (
	"strings"
	"testing"
)

func TestTrimClean(t *testing.T) {
	in := "Hello\x00   world \n\t again"
	out := trimClean(in, 100)
	if out != "Hello world again" {
		t.Fatalf("unexpected snippet: %q", out)
	}
}

func TestTrimCleanTruncates(t *testing.T) {
	out := trimClean(strings.Repeat("a", 500), 100)
	if len([]rune(out)) != 103 || !strings.HasSuffix(out, "...") {
		t.Fatalf("expected 100-rune snippet with ellipsis, got %d runes", len([]rune(out)))
	}
}

func TestEvidenceSnippet(t *testing.T) {
	chunk := "Photosynthesis converts light into chemical energy. Chlorophyll absorbs mostly blue and red light. Unrelated appendix text."
	q := "Which light does chlorophyll absorb?"
	out := EvidenceSnippet(chunk, q, 200)
	if !strings.Contains(strings.ToLower(out), "chlorophyll") {
		t.Fatalf("expected relevance to chlorophyll in snippet, got: %q", out)
	}
}
