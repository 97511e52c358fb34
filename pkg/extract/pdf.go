package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFHandler extracts per-page plain text from a PDF, adapted from the
// teacher's PDFParser: page text is joined with a "--- Page N ---"
// marker so the recursive splitter's paragraph separator still lands on
// page boundaries.
type PDFHandler struct{}

func (h *PDFHandler) CanHandle(mimeType, filename string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	return mimeType == "" && extOf(filename) == ".pdf"
}

func (h *PDFHandler) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: parse pdf %q: %w", filename, err)
	}

	var parts []string
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			parts = append(parts, fmt.Sprintf("--- Page %d (extraction failed: %v) ---", pageNum, err))
			continue
		}

		if strings.TrimSpace(text) != "" {
			parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
