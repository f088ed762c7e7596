package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// errInflatedTooLarge reports archive parts that decompress past the limit.
var errInflatedTooLarge = errors.New("decompressed content exceeds limit")

// inflateBudget is the number of decompressed bytes still allowed across all
// parts of one archive.
type inflateBudget struct {
	remaining int64
}

func newInflateBudget(limit int64) *inflateBudget {
	if limit <= 0 {
		limit = math.MaxInt64
	}
	return &inflateBudget{remaining: limit}
}

// limitedPart reads a decompressed part and fails with errInflatedTooLarge
// once the shared budget is spent and more data follows.
type limitedPart struct {
	r      io.Reader
	budget *inflateBudget
}

func (l *limitedPart) Read(p []byte) (int, error) {
	if l.budget.remaining <= 0 {
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			return 0, errInflatedTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.budget.remaining {
		p = p[:l.budget.remaining]
	}
	n, err := l.r.Read(p)
	l.budget.remaining -= int64(n)
	return n, err
}

// extractDOCX returns the text of every paragraph of the main document part,
// each followed by a single space. At most maxInflated bytes are decompressed.
func extractDOCX(r io.ReaderAt, size, maxInflated int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}
	f := findFile(zr, "word/document.xml")
	if f == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}
	var b strings.Builder
	err = walkParts(f, newInflateBudget(maxInflated), "p", func(paragraph string) {
		b.WriteString(paragraph)
		b.WriteByte(' ')
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// extractPPTX returns the text of every shape on every slide in slide order.
// A shape's paragraphs are joined with newlines and each shape is followed by
// a single space. maxInflated bounds the decompressed size of all slides.
func extractPPTX(r io.ReaderAt, size, maxInflated int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pptx archive: %w", err)
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	budget := newInflateBudget(maxInflated)
	var b strings.Builder
	for _, s := range slides {
		var paragraphs []string
		err := walkShapes(s.file, budget, func(p string) {
			paragraphs = append(paragraphs, p)
		}, func() {
			b.WriteString(strings.Join(paragraphs, "\n"))
			b.WriteByte(' ')
			paragraphs = paragraphs[:0]
		})
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", s.file.Name, err)
		}
	}
	return b.String(), nil
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// walkParts streams f and calls emit with the text of every element whose
// local name is container (w:p for Word). Text comes from "t" elements;
// "tab" and "br" become a tab and a newline.
func walkParts(f *zip.File, budget *inflateBudget, container string, emit func(string)) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(&limitedPart{r: rc, budget: budget})
	var cur strings.Builder
	inText := false
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.Name, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case container:
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case container:
				depth--
				if depth == 0 {
					emit(cur.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(el)
			}
		}
	}
}

// walkShapes streams a slide part, calling paragraph for each a:p inside a
// p:sp shape and shapeDone when the shape closes.
func walkShapes(f *zip.File, budget *inflateBudget, paragraph func(string), shapeDone func()) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(&limitedPart{r: rc, budget: budget})
	var cur strings.Builder
	shapeDepth, paraDepth := 0, 0
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.Name, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp":
				shapeDepth++
			case "p":
				if shapeDepth > 0 && el.Name.Space != "" && isDrawingNS(el.Name.Space) {
					paraDepth++
					cur.Reset()
				}
			case "t":
				inText = paraDepth > 0
			case "br":
				if paraDepth > 0 {
					cur.WriteByte('\v')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "sp":
				shapeDepth--
				if shapeDepth == 0 {
					shapeDone()
				}
			case "p":
				if paraDepth > 0 && isDrawingNS(el.Name.Space) {
					paraDepth--
					paragraph(cur.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(el)
			}
		}
	}
}

// isDrawingNS reports whether ns is the DrawingML main namespace, which
// distinguishes a:p paragraphs from p: presentation elements.
func isDrawingNS(ns string) bool {
	return strings.HasSuffix(ns, "/drawingml/2006/main")
}
