package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/nguyenthenguyen/docx"
)

// DOCXHandler extracts paragraph, table, and header/footer text from a
// Word document, adapted from the Word half of the teacher's
// OfficeParser (the Excel half is dropped — see DESIGN.md).
//
// nguyenthenguyen/docx only reads from a path, so the fetched S3 bytes
// are spooled to a scratch file first.
type DOCXHandler struct{}

func (h *DOCXHandler) CanHandle(mimeType, filename string) bool {
	if mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		return true
	}
	return mimeType == "" && extOf(filename) == ".docx"
}

func (h *DOCXHandler) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "extract-docx-*.docx")
	if err != nil {
		return "", fmt.Errorf("extract: docx scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("extract: write docx scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("extract: flush docx scratch file: %w", err)
	}

	doc, err := docx.ReadDocxFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("extract: parse docx %q: %w", filename, err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}
