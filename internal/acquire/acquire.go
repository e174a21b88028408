// Package acquire turns course content of every supported format into
// sentence lists ready for n-gram extraction.
//
// Each format has one handler. Content that cannot yield sentences for
// structural reasons (an image-only PDF, an empty page) is reported with
// ErrNoContent so callers can record the unit as unparsed and move on;
// only infrastructure failures surface as other errors.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/log"
	"github.com/openlms/ask4summary/internal/segment"
)

// ErrNoContent indicates the content unit produced no usable sentences.
// The unit is recorded as unparsed, not failed.
var ErrNoContent = errors.New("no usable content")

// Kind identifies a content format.
type Kind int

const (
	KindPage Kind = iota
	KindPDF
	KindDOCX
	KindPPTX
)

// String returns the lowercase format name.
func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	case KindPPTX:
		return "pptx"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source is one content unit to acquire. HTML carries page content, Data
// carries document bytes for the binary formats.
type Source struct {
	Kind Kind
	HTML string
	Data []byte
}

// Acquirer converts content units into sentences.
type Acquirer struct {
	converter converter
	logger    log.Logger
}

// New creates an Acquirer. The converter configuration names the external
// command used for PDF text extraction.
func New(cfg config.ConverterConfig, logger log.Logger) *Acquirer {
	return &Acquirer{
		converter: newExecConverter(cfg),
		logger:    logger,
	}
}

// Sentences extracts the sentences of one content unit.
func (a *Acquirer) Sentences(ctx context.Context, src Source) ([]string, error) {
	var (
		sentences []string
		err       error
	)
	switch src.Kind {
	case KindPage:
		sentences, err = PageSentences(src.HTML)
	case KindPDF:
		sentences, err = a.pdfSentences(ctx, src.Data)
	case KindDOCX:
		sentences, err = docxSentences(src.Data)
	case KindPPTX:
		sentences, err = pptxSentences(src.Data)
	default:
		return nil, fmt.Errorf("unsupported content kind %v", src.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, ErrNoContent
	}

	a.logger.Debug("acquired content", "kind", src.Kind.String(), "sentences", len(sentences))
	return sentences, nil
}

// PageSentences extracts sentences from HTML page content: headings first,
// each closed with a period, then paragraph text split into sentences.
func PageSentences(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}

	var sentences []string
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		if !strings.HasSuffix(text, ".") {
			text += "."
		}
		sentences = append(sentences, text)
	})
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		sentences = append(sentences, segment.Split(text)...)
	})
	return sentences, nil
}
