package document

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists the elements whose text ends a run of words.
const blockSelector = "p, div, li, td, th, h1, h2, h3, h4, h5, h6, br, title, section, article, blockquote, pre"

func extractHTML(r io.ReaderAt, size int64) (string, error) {
	doc, err := goquery.NewDocumentFromReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template, iframe, svg").Remove()
	// keep words in adjacent blocks from running together
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
