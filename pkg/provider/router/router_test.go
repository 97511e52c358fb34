package router

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fylr-platform/core/pkg/prompt"
	"github.com/fylr-platform/core/pkg/provider"
)

type fakeChatDriver struct {
	lastModel string
}

func (f *fakeChatDriver) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	f.lastModel = req.Model
	return &provider.ChatResponse{Model: req.Model}, nil
}

func (f *fakeChatDriver) ChatStream(ctx context.Context, req provider.ChatRequest) (<-chan provider.StreamDelta, error) {
	return nil, nil
}

func buildPromptRegistry(t *testing.T, complexity string) *prompt.Registry {
	t.Helper()
	dir := t.TempDir()
	writePrompt(t, dir, complexity)
	reg, err := prompt.Load(dir)
	require.NoError(t, err)
	return reg
}

func writePrompt(t *testing.T, dir, complexity string) {
	t.Helper()
	content := "id: podcast_segment\nversion: v1\ntemplate: \"x\"\nmeta:\n  complexity: " + complexity + "\n"
	require.NoError(t, os.WriteFile(dir+"/podcast_segment.yaml", []byte(content), 0644))
}

func TestAutoRouteByComplexity(t *testing.T) {
	reg := buildPromptRegistry(t, "synthesis")
	driver := &fakeChatDriver{}
	r := New(reg, map[string]provider.ChatCapable{"openai": driver}, nil)

	selected, err := r.Select(context.Background(), provider.ChatRequest{}, "podcast_segment", "v1")
	require.NoError(t, err)
	require.Equal(t, DefaultModelMap["synthesis"].Model, selected.Request.Model)
}

func TestAutoRouteFallsBackToDefault(t *testing.T) {
	driver := &fakeChatDriver{}
	r := New(nil, map[string]provider.ChatCapable{"openai": driver}, nil)

	selected, err := r.Select(context.Background(), provider.ChatRequest{}, "unknown_prompt", "")
	require.NoError(t, err)
	require.Equal(t, DefaultModelMap["default"].Model, selected.Request.Model)
}
