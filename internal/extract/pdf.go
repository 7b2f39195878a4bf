package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the text of all pages, one page per line, and the page count.
func extractPDF(content []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), numPages, nil
}
