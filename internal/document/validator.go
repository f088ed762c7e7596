package document

import (
	"fmt"
	"sort"
	"strings"
)

const maxFilenameLength = 255

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks an upload's filename and size before any decoding happens
// and returns a ValidationError describing every problem found.
func Validate(filename string, size, maxBytes int64) error {
	errs := make(map[string]string)

	name := strings.TrimSpace(filename)
	if name == "" {
		errs["filename"] = "filename is required"
	} else if len(name) > maxFilenameLength {
		errs["filename"] = fmt.Sprintf("filename must be at most %d characters", maxFilenameLength)
	} else if _, err := FormatOf(name); err != nil {
		errs["filename"] = "file type must be one of pdf, docx, pptx, html, txt"
	}
	if size < 0 {
		errs["size"] = "size must not be negative"
	} else if maxBytes > 0 && size > maxBytes {
		errs["size"] = fmt.Sprintf("document must be at most %d bytes", maxBytes)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
