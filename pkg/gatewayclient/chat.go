package gatewayclient

import (
	"context"
	"encoding/json"
	"fmt"
)

type chatMessageWire struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestWire struct {
	Provider      string            `json:"provider,omitempty"`
	Model         string            `json:"model,omitempty"`
	Stream        bool              `json:"stream"`
	PromptType    string            `json:"prompt_type,omitempty"`
	PromptVersion string            `json:"prompt_version,omitempty"`
	PromptVars    map[string]any    `json:"prompt_vars,omitempty"`
	Messages      []chatMessageWire `json:"messages,omitempty"`
}

// chatResponseWire mirrors pkg/gateway's chatCompletionResponseWireShape:
// a flat {model, content, ...} body rather than OpenAI's choices array,
// since both sides of this call are this system's own gateway.
type chatResponseWire struct {
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
}

// PromptRequest renders prompt_type@prompt_version with vars as the
// leading messages of a chat completion (pkg/gateway's prompt_type
// combination), the calling convention every generator uses instead of
// building raw message lists (original_source's AIGatewayService.generate_text
// called with a {prompt_type, prompt_version, prompt_vars} dict).
type PromptRequest struct {
	PromptType    string
	PromptVersion string
	PromptVars    map[string]any
}

// GenerateText calls POST /v1/chat/completions with provider="auto" and a
// rendered prompt, returning the completion's text content.
func (c *Client) GenerateText(ctx context.Context, req PromptRequest) (string, error) {
	wire := chatRequestWire{
		Provider:      "auto",
		PromptType:    req.PromptType,
		PromptVersion: req.PromptVersion,
		PromptVars:    req.PromptVars,
	}

	respBody, err := c.do(ctx, "/v1/chat/completions", wire)
	if err != nil {
		return "", err
	}

	var parsed chatResponseWire
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gatewayclient: decode chat completion response: %w", err)
	}
	return parsed.Content, nil
}
