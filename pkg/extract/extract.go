// Package extract maps an uploaded document's MIME type or filename
// extension to a text extractor and splits the result into an ordered
// chunk stream, following the Handler/NativeParserRegistry split the
// teacher's pkg/context/native_parsers.go uses. Grounded on spec.md §4.E;
// the concrete PDF and DOCX readers are adapted from that file's
// PDFParser and the Word half of its OfficeParser.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fylr-platform/core/pkg/chunk"
)

// EmptyContentError is returned when a handler's extractor produces no
// usable text (spec.md §4.E: "An empty extracted text is an error").
type EmptyContentError struct {
	MimeType string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("extract: %s produced no text content", e.MimeType)
}

// UnsupportedFormatError is returned when no handler matches a document.
type UnsupportedFormatError struct {
	MimeType string
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("extract: no handler for mime type %q (file %q)", e.MimeType, e.Filename)
}

// Handler extracts plain text from one document format.
type Handler interface {
	// CanHandle reports whether this handler accepts the given MIME type
	// or, when mimeType is empty, the file's extension.
	CanHandle(mimeType, filename string) bool
	// Extract returns the document's plain text content.
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Manager dispatches a document to its Handler by MIME type or filename
// extension, then splits the extracted text into chunks with the
// standard splitter (spec.md §4.E).
type Manager struct {
	handlers []Handler
	splitter *chunk.Splitter
}

// NewManager builds a Manager with the standard format handlers
// (text, markdown, PDF, DOCX, PPTX) registered in preference order.
func NewManager() *Manager {
	return &Manager{
		handlers: []Handler{
			&TextHandler{},
			&MarkdownHandler{},
			&PDFHandler{},
			&DOCXHandler{},
			&PPTXHandler{},
		},
		splitter: chunk.NewDefaultSplitter(),
	}
}

// Register prepends a handler, taking precedence over the built-ins for
// any MIME type/extension it also claims (registration is by static
// table, per spec.md §4.E — callers compose the table by call order).
func (m *Manager) Register(h Handler) {
	m.handlers = append([]Handler{h}, m.handlers...)
}

// find returns the first handler that claims mimeType/filename.
func (m *Manager) find(mimeType, filename string) Handler {
	for _, h := range m.handlers {
		if h.CanHandle(mimeType, filename) {
			return h
		}
	}
	return nil
}

// Process extracts text from data and splits it into chunks. mimeType
// may be empty, in which case dispatch falls back to filename's
// extension (the Handler Manager's "filename convention" registration
// mode from spec.md §4.E).
func (m *Manager) Process(ctx context.Context, mimeType string, data []byte, filename string) ([]chunk.Chunk, error) {
	h := m.find(mimeType, filename)
	if h == nil {
		return nil, &UnsupportedFormatError{MimeType: mimeType, Filename: filename}
	}

	text, err := h.Extract(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, &EmptyContentError{MimeType: mimeType}
	}

	return m.splitter.Split(text), nil
}

func extOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
