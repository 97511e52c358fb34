package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePromptFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadAndRenderPrompt(t *testing.T) {
	dir := t.TempDir()
	writePromptFile(t, dir, "episode_summary.yaml", `
id: episode_summary
version: v1
form: prompt
template: |
  Summarize episode "{{.episode_title}}" focusing on {{.focus}} using: {{.context_content}}
meta:
  complexity: synthesis
`)

	reg, err := Load(dir)
	require.NoError(t, err)
	require.Contains(t, reg.List(), "episode_summary@v1")

	t.Run("missing required variable", func(t *testing.T) {
		_, err := reg.Render("episode_summary", "v1", map[string]any{"episode_title": "X"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.ElementsMatch(t, []string{"focus", "context_content"}, verr.Missing)
	})

	t.Run("successful render", func(t *testing.T) {
		res, err := reg.Render("episode_summary", "v1", map[string]any{
			"episode_title":   "History of X",
			"focus":           "origins",
			"context_content": "some context",
		})
		require.NoError(t, err)
		require.Equal(t, FormPrompt, res.Form)
		require.Contains(t, res.Prompt, "History of X")
	})

	t.Run("complexity meta used by auto router", func(t *testing.T) {
		entry, err := reg.GetEntry("episode_summary", "v1")
		require.NoError(t, err)
		require.Equal(t, "synthesis", entry.Complexity())
	})
}

func TestVersionFallback(t *testing.T) {
	dir := t.TempDir()
	writePromptFile(t, dir, "summary_keywords.yaml", `
id: summary_keywords
version: v1
template: "keywords v1 {{.x}}"
`)
	writePromptFile(t, dir, "summary_keywords_v2.yaml", `
id: summary_keywords
version: v2
template: "keywords v2 {{.x}}"
`)

	reg, err := Load(dir)
	require.NoError(t, err)

	entry, err := reg.GetEntry("summary_keywords", "")
	require.NoError(t, err)
	require.Equal(t, "v2", entry.Version)
}

func TestMessagesForm(t *testing.T) {
	dir := t.TempDir()
	writePromptFile(t, dir, "chat_system.yaml", `
id: chat_system
version: v1
form: messages
messages_template: |
  - role: system
    content: "You are a helpful assistant for {{.topic}}."
  - content: "Begin."
`)

	reg, err := Load(dir)
	require.NoError(t, err)

	res, err := reg.Render("chat_system", "v1", map[string]any{"topic": "astronomy"})
	require.NoError(t, err)
	require.Equal(t, FormMessages, res.Form)
	require.Len(t, res.Messages, 2)
	require.Equal(t, "system", res.Messages[0].Role)
	require.Equal(t, "user", res.Messages[1].Role)
}

func TestNotFound(t *testing.T) {
	reg := NewFromEntries()
	_, err := reg.GetEntry("missing", "")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}
