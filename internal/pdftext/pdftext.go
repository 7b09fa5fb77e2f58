// Package pdftext extracts per-page plain text from PDF files.
package pdftext

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bunko-dev/bunko/internal/logging"
)

var pdfLog = logging.ForComponent(logging.CompPDF)

// Extractor turns a PDF file into per-page plain text. Index i of the
// returned slice is page i+1. An error means the file could not be read as
// a PDF at all; individual unreadable pages yield empty strings.
type Extractor interface {
	Extract(path string) ([]string, error)
}

// Reader extracts text with the ledongthuc/pdf library.
type Reader struct{}

// NewReader returns the default PDF text extractor.
func NewReader() *Reader {
	return &Reader{}
}

// Extract returns cleaned per-page text for the PDF at path.
// The pdf library panics on some malformed files, so the page count and each
// page are individually panic-guarded; a page that cannot be decoded comes
// back empty rather than failing the document.
func (r *Reader) Extract(path string) (pages []string, err error) {
	f, reader, oerr := pdf.Open(path)
	if oerr != nil {
		return nil, fmt.Errorf("pdftext: open %s: %w", path, oerr)
	}
	defer f.Close()

	pageCount := 0
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				pdfLog.Debug("page_count_unreadable",
					slog.String("path", path),
					slog.String("recover", fmt.Sprintf("%v", rec)))
			}
		}()
		pageCount = reader.NumPage()
	}()
	if pageCount <= 0 {
		return nil, fmt.Errorf("pdftext: %s: no readable pages", path)
	}

	pages = make([]string, pageCount)
	for i := 1; i <= pageCount; i++ {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					pdfLog.Debug("page_undecodable",
						slog.String("path", path),
						slog.Int("page", i),
						slog.String("recover", fmt.Sprintf("%v", rec)))
				}
			}()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			var b strings.Builder
			for _, item := range page.Content().Text {
				b.WriteString(item.S)
				b.WriteString(" ")
			}
			pages[i-1] = Clean(b.String())
		}()
	}
	return pages, nil
}
