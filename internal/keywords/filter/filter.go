// Package filter cleans weighted terms into display keywords: punctuation
// is stripped, text is case-folded, and short, stop-word, over-long and
// duplicate candidates are dropped.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
)

const (
	DefaultMinLength = 4
	DefaultMaxWords  = 2
)

// Filter applies the cleaning rules. It is immutable after New.
type Filter struct {
	stopwords *stopwords.Set
	minLength int
	maxWords  int
}

// New creates a Filter. Candidates must be longer than minLength runes and
// have at most maxWords words. Non-positive maxWords falls back to
// DefaultMaxWords; negative minLength to DefaultMinLength.
func New(stop *stopwords.Set, minLength, maxWords int) *Filter {
	if minLength < 0 {
		minLength = DefaultMinLength
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Filter{
		stopwords: stop,
		minLength: minLength,
		maxWords:  maxWords,
	}
}

// Clean removes every rune that is not a letter, digit or whitespace and
// lowercases the rest.
func Clean(term string) string {
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CleanAndFilter cleans each term in order and keeps the first occurrence of
// every surviving keyword together with that occurrence's score. The stop-word
// check compares the whole candidate, so multi-word candidates are only
// removed by the length and word-count rules.
func (f *Filter) CleanAndFilter(terms []keywords.ScoredTerm) []keywords.Keyword {
	result := make([]keywords.Keyword, 0, len(terms))
	if len(terms) == 0 {
		return result
	}
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		candidate := Clean(term.Term)
		if utf8.RuneCountInString(candidate) <= f.minLength {
			continue
		}
		if f.stopwords.Contains(candidate) {
			continue
		}
		if n := len(strings.Fields(candidate)); n == 0 || n > f.maxWords {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		result = append(result, keywords.Keyword{
			Keyword: candidate,
			Score:   term.Score,
		})
	}
	return result
}
