package ocr

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo is what upload validation needs to know about a PDF.
type PDFInfo struct {
	Pages     int
	Encrypted bool
}

// InspectPDF parses data with pdfcpu in relaxed mode and reports its page count.
// Anything pdfcpu cannot read is rejected.
func InspectPDF(data []byte) (PDFInfo, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return PDFInfo{}, fmt.Errorf("count pages: %w", err)
	}
	return PDFInfo{Pages: ctx.PageCount, Encrypted: ctx.Encrypt != nil}, nil
}

// PDFText returns the embedded text layer of a PDF, one page per block.
// Scanned PDFs come back with empty text and no error.
func PDFText(data []byte) (string, int, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("new pdf reader: %w", err)
	}
	var b strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", total, fmt.Errorf("page %d: %w", page, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return Normalize(b.String()), total, nil
}
