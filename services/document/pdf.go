// Package document draws recap documents as PDF files.
package document

import (
	"io"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core/recap"
)

const (
	ContentType = "application/pdf"
	Extension   = ".pdf"

	fontFamily = "Helvetica"
)

func newPDF() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(fontFamily, "", recap.DefaultLayout().BodySize)
	return pdf
}

// Render draws every page of doc and writes the PDF to w.
func Render(w io.Writer, doc recap.Document) error {
	pdf := newPDF()
	pdf.SetTitle(doc.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, txt := range page.Texts {
			style := ""
			if txt.Size > recap.DefaultLayout().BodySize {
				style = "B"
			}
			pdf.SetFont(fontFamily, style, txt.Size)
			pdf.Text(txt.X, txt.Y, tr(txt.Value))
		}
	}
	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// Wrapper splits text with the metrics of the body font.
type Wrapper struct {
	mu  sync.Mutex
	pdf *gofpdf.Fpdf
}

var _ recap.Wrapper = (*Wrapper)(nil)

func NewWrapper() *Wrapper {
	return &Wrapper{pdf: newPDF()}
}

func (w *Wrapper) Wrap(text string, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pdf.SplitText(latin1(text), width)
}

// latin1 replaces the runes the core fonts have no metrics for.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}
