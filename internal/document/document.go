// Package document turns uploaded files into the plain text consumed by the
// keyword pipeline. It understands PDF, DOCX, PPTX, HTML and UTF-8 text
// files and knows nothing about keywords.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
)

// Format identifies a supported document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

const (
	previewThreshold = 2500
	previewLength    = 2000
)

// FormatOf maps a filename's extension to a Format.
func FormatOf(filename string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch Format(ext) {
	case FormatPDF, FormatDOCX, FormatPPTX, FormatText, FormatHTML:
		return Format(ext), nil
	case "htm":
		return FormatHTML, nil
	}
	return "", apperrors.Newf(apperrors.ErrUnsupportedFormat, http.StatusUnsupportedMediaType,
		"unsupported file type %q; upload a PDF, DOCX, PPTX, HTML or TXT file", filepath.Ext(filename))
}

// Extract returns the text of the document named filename whose bytes are
// available through r. The text is NFC-normalized so that composed and
// decomposed spellings of the same word tokenize identically.
//
// maxBytes bounds the decompressed XML read from DOCX and PPTX archives and
// the length of the extracted text; exceeding it is ErrDocumentTooLarge.
// A non-positive maxBytes disables the bound.
func Extract(filename string, r io.ReaderAt, size, maxBytes int64) (string, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return "", err
	}
	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(r, size)
	case FormatDOCX:
		text, err = extractDOCX(r, size, maxBytes)
	case FormatPPTX:
		text, err = extractPPTX(r, size, maxBytes)
	case FormatText:
		text, err = extractText(r, size)
	case FormatHTML:
		text, err = extractHTML(r, size)
	}
	if errors.Is(err, errInflatedTooLarge) {
		return "", apperrors.Newf(apperrors.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge,
			"%s content expands past %d bytes", format, maxBytes)
	}
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrDocumentDecode, http.StatusBadRequest,
			"reading %s: %v", format, err)
	}
	if maxBytes > 0 && int64(len(text)) > maxBytes {
		return "", apperrors.Newf(apperrors.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge,
			"extracted text exceeds %d bytes", maxBytes)
	}
	return norm.NFC.String(text), nil
}

// ExtractBytes is Extract for an in-memory document.
func ExtractBytes(filename string, data []byte, maxBytes int64) (string, error) {
	return Extract(filename, bytes.NewReader(data), int64(len(data)), maxBytes)
}

func extractText(r io.ReaderAt, size int64) (string, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	return string(data), nil
}

// Preview shortens long text for display: anything longer than 2500 runes
// is cut to its first 2000 runes followed by "...".
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewThreshold {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
