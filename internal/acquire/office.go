package acquire

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/openlms/ask4summary/internal/segment"
)

// Office Open XML documents are zip archives holding well-known XML parts:
// word/document.xml for DOCX, ppt/slides/slideN.xml for PPTX. The handlers
// read text runs from those parts by local element name so namespace prefixes
// do not matter.

// docxSentences extracts sentences from a Word document.
func docxSentences(data []byte) ([]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrNoContent, err)
	}

	var body string
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		runs, err := textRuns(file, "t")
		if err != nil {
			return nil, err
		}
		body = strings.Join(runs, " ")
		break
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: no document body", ErrNoContent)
	}
	return segment.Split(body), nil
}

// pptxSentences extracts sentences from a PowerPoint deck, one slide at a
// time. A period is injected between text runs so that each slide's runs
// become separable sentences even when the deck omits punctuation.
func pptxSentences(data []byte) ([]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrNoContent, err)
	}

	var slides []*zip.File
	for _, file := range archive.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides = append(slides, file)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var sentences []string
	for _, slide := range slides {
		runs, err := textRuns(slide, "t")
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			continue
		}
		text := strings.Join(runs, ". ")
		if !strings.HasSuffix(text, ".") {
			text += "."
		}
		sentences = append(sentences, segment.Split(text)...)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: no slide text", ErrNoContent)
	}
	return sentences, nil
}

// slideNumber parses the N out of ppt/slides/slideN.xml so decks sort in
// presentation order rather than lexicographically.
func slideNumber(name string) int {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return n
}

// textRuns reads every non-empty text element with the given local name from
// one archive member.
func textRuns(file *zip.File, localName string) ([]string, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	doc, err := xmlquery.Parse(io.LimitReader(rc, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed xml in %s: %v", ErrNoContent, file.Name, err)
	}

	nodes := xmlquery.Find(doc, fmt.Sprintf("//*[local-name()='%s']", localName))
	runs := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if text := strings.TrimSpace(node.InnerText()); text != "" {
			runs = append(runs, text)
		}
	}
	return runs, nil
}
