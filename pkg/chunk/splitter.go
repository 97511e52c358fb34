// Package chunk implements the recursive character text splitter every
// format handler in pkg/extract ends with: target chunk size 1000,
// overlap 200, separator ladder ["\n\n", "\n", " ", ""]. Grounded on the
// langchain_text_splitters.RecursiveCharacterTextSplitter configuration
// original_source's ingestor/ingestors/text-python-1/src/main.py uses
// (chunk_size=1000, chunk_overlap=200, add_start_index=True), reimplemented
// in the style of the teacher's pkg/context/chunking package.
package chunk

import "strings"

// DefaultSeparators is the separator ladder tried in order: paragraph
// breaks first, then line breaks, then spaces, then raw characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is one piece of a recursively split text, carrying its byte offset
// into the original string (the chunk_index ingestion workers persist).
type Chunk struct {
	Content    string
	StartIndex int
}

// Splitter recursively splits text using a separator ladder, merging small
// pieces up to Size and carrying Overlap characters of trailing context
// into the next chunk.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewDefaultSplitter returns the splitter configuration every format
// handler uses (spec.md §4.E).
func NewDefaultSplitter() *Splitter {
	return &Splitter{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap, Separators: DefaultSeparators}
}

// Split breaks text into chunks. An empty (all-whitespace) text is the
// caller's responsibility to reject as a Data error (spec.md §4.E: "An
// empty extracted text is an error").
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	pieces := s.splitText(text, s.Separators)
	return s.mergePieces(text, pieces)
}

// splitText recursively divides text on the first usable separator,
// descending to the next separator for any piece still over Size.
func (s *Splitter) splitText(text string, separators []string) []string {
	if len(text) <= s.Size || len(separators) == 0 {
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]

	var parts []string
	if sep == "" {
		// Final rung: split into individual runes.
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, sep)
	}

	var out []string
	for i, part := range parts {
		piece := part
		if sep != "" && i < len(parts)-1 {
			piece = part + sep
		}
		if piece == "" {
			continue
		}
		if len(piece) > s.Size && len(rest) > 0 {
			out = append(out, s.splitText(piece, rest)...)
		} else {
			out = append(out, piece)
		}
	}
	return out
}

// mergePieces greedily packs adjacent pieces into chunks up to Size,
// carrying Overlap trailing characters from the previous chunk into the
// next one, and records each chunk's starting byte offset in the
// original text.
func (s *Splitter) mergePieces(original string, pieces []string) []Chunk {
	var chunks []Chunk
	var current strings.Builder
	searchFrom := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		content := current.String()
		idx := strings.Index(original[searchFrom:], content)
		startIndex := searchFrom
		if idx >= 0 {
			startIndex = searchFrom + idx
		}
		chunks = append(chunks, Chunk{Content: content, StartIndex: startIndex})
		current.Reset()

		// Advance past this chunk so the next flush's search starts at (or
		// after) where this chunk's own overlap tail begins, not at 0 —
		// otherwise strings.Index finds the first occurrence of a repeated
		// substring anywhere in the document instead of this chunk's true
		// offset (e.g. repeated headers, bullet lists, whitespace runs).
		searchFrom = startIndex + len(content) - s.Overlap
		if searchFrom < startIndex {
			searchFrom = startIndex
		}
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.Size {
			flush()

			if s.Overlap > 0 {
				prevTail := lastChunkTail(chunks, s.Overlap)
				current.WriteString(prevTail)
			}
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}

// lastChunkTail returns up to n trailing characters (by byte, on a rune
// boundary) of the most recently flushed chunk, used to seed overlap.
func lastChunkTail(chunks []Chunk, n int) string {
	if len(chunks) == 0 {
		return ""
	}
	content := chunks[len(chunks)-1].Content
	if len(content) <= n {
		return content
	}
	start := len(content) - n
	for start > 0 && !isRuneStart(content[start]) {
		start--
	}
	return content[start:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
