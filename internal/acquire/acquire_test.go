package acquire

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/log"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestPageSentences(t *testing.T) {
	html := `<html><body>
		<h1>Course Outline</h1>
		<h2>Assessment.</h2>
		<p>The report is worth 40 percent. It is due in week 10.</p>
		<p></p>
	</body></html>`

	got, err := PageSentences(html)
	if err != nil {
		t.Fatalf("PageSentences() error: %v", err)
	}

	want := []string{
		"Course Outline.",
		"Assessment.",
		"The report is worth 40 percent.",
		"It is due in week 10.",
	}
	if len(got) != len(want) {
		t.Fatalf("sentences = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDocxSentences(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>
			<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
				<w:body>
					<w:p><w:r><w:t>The final report covers chapters one to five.</w:t></w:r></w:p>
					<w:p><w:r><w:t>Submit it as a single file.</w:t></w:r></w:p>
				</w:body>
			</w:document>`,
		"[Content_Types].xml": `<Types/>`,
	})

	got, err := docxSentences(data)
	if err != nil {
		t.Fatalf("docxSentences() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sentences = %v", got)
	}
	if got[0] != "The final report covers chapters one to five." {
		t.Errorf("sentence 0 = %q", got[0])
	}
}

func TestDocxSentences_NotZip(t *testing.T) {
	_, err := docxSentences([]byte("plain text, not an archive"))
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestPptxSentences(t *testing.T) {
	slide := `<?xml version="1.0"?>
		<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
		       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
			<a:t>Week one topics</a:t>
			<a:t>Reading list on the portal</a:t>
		</p:sld>`
	data := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml": slide,
		"ppt/presentation.xml":  `<p:presentation/>`,
	})

	got, err := pptxSentences(data)
	if err != nil {
		t.Fatalf("pptxSentences() error: %v", err)
	}
	want := []string{"Week one topics.", "Reading list on the portal."}
	if len(got) != len(want) {
		t.Fatalf("sentences = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestPptxSentences_SlideOrder builds a deck where lexicographic file order
// would put slide10 ahead of slide2 and checks slides come back in
// presentation order.
func TestPptxSentences_SlideOrder(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?>
			<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
			       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
				<a:t>` + text + `</a:t>
			</p:sld>`
	}
	data := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml":  slide("Slide one"),
		"ppt/slides/slide2.xml":  slide("Slide two"),
		"ppt/slides/slide10.xml": slide("Slide ten"),
		"ppt/presentation.xml":   `<p:presentation/>`,
	})

	got, err := pptxSentences(data)
	if err != nil {
		t.Fatalf("pptxSentences() error: %v", err)
	}
	want := []string{"Slide one.", "Slide two.", "Slide ten."}
	if len(got) != len(want) {
		t.Fatalf("sentences = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPptxSentences_EmptyDeck(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml": `<p:presentation/>`,
	})
	if _, err := pptxSentences(data); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

// TestPDFSentences uses cat as the converter so the temp file's own bytes
// come back as the extracted text.
func TestPDFSentences(t *testing.T) {
	a := New(config.ConverterConfig{
		Command:   "cat",
		TimeoutMS: 5000,
	}, log.NewNop())

	got, err := a.Sentences(context.Background(), Source{
		Kind: KindPDF,
		Data: []byte("The lab runs weekly. Attendance is recorded."),
	})
	if err != nil {
		t.Fatalf("Sentences() error: %v", err)
	}
	if len(got) != 2 || got[0] != "The lab runs weekly." {
		t.Errorf("sentences = %v", got)
	}
}

func TestPDFSentences_ConverterFails(t *testing.T) {
	a := New(config.ConverterConfig{
		Command:   "false",
		TimeoutMS: 5000,
	}, log.NewNop())

	_, err := a.Sentences(context.Background(), Source{Kind: KindPDF, Data: []byte("x")})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestPDFSentences_EmptyOutput(t *testing.T) {
	a := New(config.ConverterConfig{
		Command:   "true",
		TimeoutMS: 5000,
	}, log.NewNop())

	_, err := a.Sentences(context.Background(), Source{Kind: KindPDF, Data: []byte("x")})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestSentences_EmptyPage(t *testing.T) {
	a := New(config.ConverterConfig{}, log.NewNop())
	_, err := a.Sentences(context.Background(), Source{Kind: KindPage, HTML: "<html><body></body></html>"})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}
