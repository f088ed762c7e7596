// Package stopwords provides the immutable stopword set shared by the
// weigher and the keyword filter. Sets are built once at startup from an
// embedded word list or a file on disk and are only read afterwards, so a
// single Set may be used from any number of goroutines.
package stopwords

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed *.txt
var lists embed.FS

// Set is a read-only collection of lowercase stopwords.
type Set struct {
	words map[string]struct{}
}

// New builds a Set from the given words. Words are lowercased and trimmed;
// blanks are ignored.
func New(words ...string) *Set {
	s := &Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		s.words[w] = struct{}{}
	}
	return s
}

// ForLanguage returns the embedded list for language (e.g. "english").
func ForLanguage(language string) (*Set, error) {
	name := strings.ToLower(strings.TrimSpace(language))
	if name == "" {
		return nil, fmt.Errorf("stopwords: language is required")
	}
	f, err := lists.Open(name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("stopwords: no embedded list for language %q", language)
	}
	defer f.Close()
	return Read(f)
}

// LoadFile reads a newline-delimited stopword list from path. Lines starting
// with '#' are comments.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopword file %s: %w", path, err)
	}
	defer f.Close()
	set, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading stopword file %s: %w", path, err)
	}
	return set, nil
}

// Read parses a newline-delimited stopword list.
func Read(r io.Reader) (*Set, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("stopwords: list is empty")
	}
	return New(words...), nil
}

// Load resolves the stopword set for a configuration: an explicit file path
// takes precedence over the embedded list for language.
func Load(language, path string) (*Set, error) {
	if path != "" {
		return LoadFile(path)
	}
	return ForLanguage(language)
}

// Contains reports whether word is in the set. The comparison is exact; the
// caller is expected to pass lowercase text.
func (s *Set) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Len returns the number of stopwords.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Words returns a sorted copy of the set's contents.
func (s *Set) Words() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
