package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextHandlerPassthrough(t *testing.T) {
	m := NewManager()
	chunks, err := m.Process(context.Background(), "text/plain", []byte("hello world"), "notes.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "hello world", chunks[0].Content)
}

func TestMarkdownDispatchByExtension(t *testing.T) {
	m := NewManager()
	chunks, err := m.Process(context.Background(), "", []byte("# Title\n\nBody text"), "readme.md")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestEmptyContentIsError(t *testing.T) {
	m := NewManager()
	_, err := m.Process(context.Background(), "text/plain", []byte("   \n  "), "blank.txt")
	require.Error(t, err)
	var emptyErr *EmptyContentError
	require.ErrorAs(t, err, &emptyErr)
}

func TestUnsupportedFormat(t *testing.T) {
	m := NewManager()
	_, err := m.Process(context.Background(), "application/zip", []byte("PK"), "archive.zip")
	require.Error(t, err)
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

// buildPPTX constructs a minimal in-memory OOXML zip with two slides so
// PPTXHandler can be exercised without a fixture binary on disk.
func buildPPTX(t *testing.T, slideTexts []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, text := range slideTexts {
		name := "ppt/slides/slide" + string(rune('1'+i)) + ".xml"
		w, err := zw.Create(name)
		require.NoError(t, err)
		xmlBody := `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
			`<a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:sld>`
		_, err = w.Write([]byte(xmlBody))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPPTXHandlerExtractsSlideText(t *testing.T) {
	data := buildPPTX(t, []string{"Welcome slide", "Second slide content"})

	m := NewManager()
	chunks, err := m.Process(context.Background(), "", data, "deck.pptx")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, "Welcome slide")
	require.Contains(t, chunks[0].Content, "Second slide content")
}

func TestPPTXHandlerCanHandle(t *testing.T) {
	h := &PPTXHandler{}
	require.True(t, h.CanHandle("", "deck.pptx"))
	require.True(t, h.CanHandle("application/vnd.openxmlformats-officedocument.presentationml.presentation", "x"))
	require.False(t, h.CanHandle("", "deck.docx"))
}
