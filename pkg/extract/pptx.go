package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PPTXHandler extracts all shape text per slide from a PowerPoint
// document. PPTX has no mainstream pure-Go reader in the pack (the
// teacher's OfficeParser stops at .docx/.xlsx), so this walks the OOXML
// zip directly with archive/zip + encoding/xml — see DESIGN.md for why
// no third-party library was adopted instead.
type PPTXHandler struct{}

func (h *PPTXHandler) CanHandle(mimeType, filename string) bool {
	if mimeType == "application/vnd.openxmlformats-officedocument.presentationml.presentation" {
		return true
	}
	return mimeType == "" && extOf(filename) == ".pptx"
}

var slideFileRE = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (h *PPTXHandler) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open pptx %q: %w", filename, err)
	}

	type slideFile struct {
		num int
		f   *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slideFileRE.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{num: n, f: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var parts []string
	for _, s := range slides {
		text, err := slideText(s.f)
		if err != nil {
			return "", fmt.Errorf("extract: slide %d of %q: %w", s.num, filename, err)
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// slideText concatenates every <a:t> run's text, in document order,
// from one slideN.xml part.
func slideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					continue
				}
				b.WriteString(text)
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}

	return b.String(), nil
}
