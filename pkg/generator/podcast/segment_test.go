package podcast

import (
	"strings"
	"testing"
)

func TestParseSegmentValid(t *testing.T) {
	raw := `{
		"title": "The Origins of Distributed Systems",
		"keynotes": [
			"Early mainframes centralized all computation",
			"Networking enabled machines to cooperate",
			"Consensus protocols emerged to handle failures"
		],
		"facts": [
			"ARPANET first connected four university nodes in 1969",
			"The CAP theorem was formalized by Eric Brewer in 2000"
		]
	}`

	seg, err := parseSegment(raw)
	if err != nil {
		t.Fatalf("parseSegment: %v", err)
	}
	if seg.Title == "" {
		t.Fatal("expected non-empty title")
	}
	if len(seg.Keynotes) != 3 || len(seg.Facts) != 2 {
		t.Fatalf("unexpected segment shape: %+v", seg)
	}
}

func TestParseSegmentInvalidJSON(t *testing.T) {
	if _, err := parseSegment("not json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestParseSegmentTitleTooShort(t *testing.T) {
	raw := `{"title": "Too short", "keynotes": ["aaaaaaaaaa", "bbbbbbbbbb"], "facts": ["cccccccccc", "dddddddddd"]}`
	if _, err := parseSegment(raw); err == nil {
		t.Fatal("expected error for too-short title")
	}
}

func TestParseSegmentTooFewKeynotes(t *testing.T) {
	raw := `{"title": "A Perfectly Reasonable Title Here", "keynotes": ["only one keynote here"], "facts": ["cccccccccc", "dddddddddd"]}`
	if _, err := parseSegment(raw); err == nil {
		t.Fatal("expected error for too few keynotes")
	}
}

func TestParseSegmentTooFewFacts(t *testing.T) {
	raw := `{"title": "A Perfectly Reasonable Title Here", "keynotes": ["aaaaaaaaaa", "bbbbbbbbbb"], "facts": ["only one fact"]}`
	if _, err := parseSegment(raw); err == nil {
		t.Fatal("expected error for too few facts")
	}
}

func TestSegmentSummaryIncludesTitleAndBullets(t *testing.T) {
	seg := &Segment{
		Title:    "A Perfectly Reasonable Title Here",
		Keynotes: []string{"first keynote text here"},
		Facts:    []string{"first fact text here"},
	}
	summary := seg.Summary()
	if summary == "" {
		t.Fatal("expected non-empty summary")
	}
	for _, want := range []string{seg.Title, "- first keynote text here", "* first fact text here"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary %q missing %q", summary, want)
		}
	}
}
