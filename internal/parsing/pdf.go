package parsing

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat/internal/apperr"
)

// PageText is the extracted plain text of a single PDF page.
type PageText struct {
	Page int
	Text string
}

// ExtractPages takes a byte slice of a PDF file and returns the plain text
// of each page, 1-based. Pages with no extractable text are kept so page
// numbering stays aligned with the document.
func ExtractPages(pdfData []byte) ([]PageText, error) {
	reader := bytes.NewReader(pdfData)
	pdfReader, err := pdf.NewReader(reader, int64(len(pdfData)))
	if err != nil {
		return nil, apperr.Validation("could not read PDF: %v", err)
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return nil, apperr.Validation("PDF contains no pages")
	}

	pages := make([]PageText, 0, numPages)
	var total int
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, PageText{Page: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("could not read content of page %d: %w", i, err)
		}
		pages = append(pages, PageText{Page: i, Text: text})
		total += len(strings.TrimSpace(text))
	}

	if total == 0 {
		return nil, apperr.Validation("PDF contains no extractable text (scanned image?)")
	}
	return pages, nil
}

// IsPDF checks if the provided filename has a .pdf extension (case-insensitive).
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
