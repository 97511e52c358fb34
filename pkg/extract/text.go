package extract

import "context"

// TextHandler passes plain-text documents through unchanged.
type TextHandler struct{}

func (h *TextHandler) CanHandle(mimeType, filename string) bool {
	if mimeType == "text/plain" {
		return true
	}
	return mimeType == "" && extOf(filename) == ".txt"
}

func (h *TextHandler) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	return string(data), nil
}

// MarkdownHandler passes markdown documents through unchanged; no
// rendering or front-matter stripping is applied, matching the
// original ingestor's treatment of markdown as already-chunkable text.
type MarkdownHandler struct{}

func (h *MarkdownHandler) CanHandle(mimeType, filename string) bool {
	if mimeType == "text/markdown" {
		return true
	}
	if mimeType != "" {
		return false
	}
	ext := extOf(filename)
	return ext == ".md" || ext == ".markdown"
}

func (h *MarkdownHandler) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	return string(data), nil
}
