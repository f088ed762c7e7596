package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page. The PDF parser
// panics on some malformed inputs, so panics are turned into errors.
func extractPDF(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		p := reader.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", pageNum, err)
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
