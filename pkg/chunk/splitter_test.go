package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func lorem(totalLen int) string {
	word := "alpha "
	var b strings.Builder
	for b.Len() < totalLen {
		b.WriteString(word)
	}
	return b.String()[:totalLen]
}

func TestSplitEmptyText(t *testing.T) {
	s := NewDefaultSplitter()
	require.Nil(t, s.Split(""))
}

func TestSplitSmallTextIsOneChunk(t *testing.T) {
	s := NewDefaultSplitter()
	chunks := s.Split("short text")
	require.Len(t, chunks, 1)
	require.Equal(t, 0, chunks[0].StartIndex)
	require.Equal(t, "short text", chunks[0].Content)
}

func TestSplitProducesSpecExampleOffsets(t *testing.T) {
	// 500 repetitions of a 5-char word ("abcd ") make a 2500-byte text
	// whose word boundaries divide evenly into the splitter's 1000-byte
	// chunk size and 200-byte overlap (spec.md §8 scenario 1: a 2500-byte
	// document produces 3 chunks, with start_index advancing by
	// Size-Overlap=800 each chunk, so the last chunk is the remaining 700
	// bytes plus the 200-byte overlap = 900 bytes). Because the
	// word repeats, a chunk's content also reoccurs earlier in the
	// document — the exact offsets below only come out right if
	// mergePieces searches forward from where the previous chunk ended
	// rather than from the start of the document every time.
	s := NewDefaultSplitter()
	text := strings.Repeat("abcd ", 500)
	require.Len(t, text, 2500)

	chunks := s.Split(text)
	require.Len(t, chunks, 3)

	wantStart := []int{0, 800, 1600}
	wantLen := []int{1000, 1000, 900}
	for i, c := range chunks {
		require.Equalf(t, wantStart[i], c.StartIndex, "chunk %d start_index", i)
		require.Equalf(t, wantLen[i], len(c.Content), "chunk %d length", i)
		require.Equal(t, text[c.StartIndex:c.StartIndex+len(c.Content)], c.Content, "chunk %d content must match its recorded offset in the source", i)
	}

	// chunk_index values (the start_index) must be unique per insertion
	// run (spec.md §3) — strictly increasing here, not just non-decreasing.
	for i := 1; i < len(chunks); i++ {
		require.Greater(t, chunks[i].StartIndex, chunks[i-1].StartIndex)
	}
}

func TestSplitLongTextProducesOverlappingChunks(t *testing.T) {
	s := NewDefaultSplitter()
	text := lorem(2500)

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)

	for _, c := range chunks {
		require.LessOrEqual(t, len(c.Content), s.Size+len(" alpha"))
	}

	// start_index values track forward progress through the source text.
	for i := 1; i < len(chunks); i++ {
		require.GreaterOrEqual(t, chunks[i].StartIndex, chunks[i-1].StartIndex)
	}

	// No chunk's recorded span runs far past the end of the source text.
	for _, c := range chunks {
		require.LessOrEqual(t, c.StartIndex+len(c.Content), len(text)+s.Overlap+10)
	}
}

func TestSplitOnParagraphBreaksFirst(t *testing.T) {
	s := NewDefaultSplitter()
	text := strings.Repeat("a", 50) + "\n\n" + strings.Repeat("b", 50)
	chunks := s.Split(text)
	require.Len(t, chunks, 1) // fits within Size, so never even recurses
}
