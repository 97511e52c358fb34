package podcast

import "testing"

func TestParseScriptAlternatingHosts(t *testing.T) {
	script := "[Host A]: Welcome to the show.\n[Host B]: Thanks for having me.\n[Host A]: Let's dive in.\n[Host B]: Sounds good."

	lines := ParseScript(script)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	wantSpeakers := []string{"Host A", "Host B", "Host A", "Host B"}
	for i, want := range wantSpeakers {
		if lines[i].Speaker != want {
			t.Errorf("line %d speaker = %q, want %q", i, lines[i].Speaker, want)
		}
	}
}

func TestParseScriptDropsMalformedLines(t *testing.T) {
	script := "[Host A]: A valid line.\nSome stray commentary with no tag.\n[Host B]: Another valid line."
	lines := ParseScript(script)
	if len(lines) != 2 {
		t.Fatalf("expected malformed line dropped, got %d lines", len(lines))
	}
}

func TestParseSerializeRoundTrip(t *testing.T) {
	script := "[Host A]: First line.\n[Host B]: Second line.\n[Host A]: Third line."
	lines := ParseScript(script)
	got := Serialize(lines)
	if got != script {
		t.Fatalf("round trip mismatch:\ngot:  %q\nwant: %q", got, script)
	}
}

func TestParseScriptIgnoresBlankLines(t *testing.T) {
	script := "[Host A]: First line.\n\n[Host B]: Second line.\n"
	lines := ParseScript(script)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}
