// Package report renders ranked keywords as the downloadable text report.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
)

// FileName is the attachment name used when the report is downloaded.
const FileName = "extracted_keywords.txt"

// ContentType is the MIME type of the report.
const ContentType = "text/plain; charset=utf-8"

// Line formats a single keyword as "keyword (Score: 0.50)".
func Line(kw keywords.Keyword) string {
	return fmt.Sprintf("%s (Score: %.2f)", kw.Keyword, kw.Score)
}

// Format joins one Line per keyword with newlines. There is no trailing
// newline; an empty list renders as "".
func Format(kws []keywords.Keyword) string {
	lines := make([]string, len(kws))
	for i, kw := range kws {
		lines[i] = Line(kw)
	}
	return strings.Join(lines, "\n")
}

// Write streams the same content as Format to w.
func Write(w io.Writer, kws []keywords.Keyword) error {
	bw := bufio.NewWriter(w)
	for i, kw := range kws {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
		if _, err := bw.WriteString(Line(kw)); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
