package podcast

import (
	"fmt"
	"regexp"
	"strings"
)

// scriptLineRE matches one dialogue line of the combiner LLM's output,
// spec.md §4.J step 5. Lines that don't match this shape (LLM noise,
// stray commentary) are silently dropped — spec.md §9 flags this as an
// open question rather than a settled behavior.
var scriptLineRE = regexp.MustCompile(`^\[(Host\s[AB])\]:\s*(.*)$`)

// ScriptLine is one (speaker, line) pair of a parsed podcast script.
type ScriptLine struct {
	Speaker string
	Text    string
}

// ParseScript splits a combiner response into its dialogue lines,
// dropping any line lacking the "[Host A]:"/"[Host B]:" tag.
func ParseScript(script string) []ScriptLine {
	var out []ScriptLine
	for _, raw := range strings.Split(script, "\n") {
		m := scriptLineRE.FindStringSubmatch(strings.TrimRight(raw, "\r"))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		out = append(out, ScriptLine{Speaker: m[1], Text: text})
	}
	return out
}

// Serialize re-renders parsed lines as "[Host X]: line" text, the inverse
// of ParseScript used by the round-trip property in spec.md §8.
func Serialize(lines []ScriptLine) string {
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = fmt.Sprintf("[%s]: %s", l.Speaker, l.Text)
	}
	return strings.Join(rendered, "\n")
}
