// Package stemmer reduces words to their root form with the Snowball
// (Porter2) English suffix rules. No dictionary lookup or part-of-speech
// information is involved.
package stemmer

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// maxPasses bounds the fixed-point loop in Stem.
const maxPasses = 4

// Stemmer maps a single lowercase word to its root form.
type Stemmer interface {
	Stem(word string) string
}

// Snowball is the Porter2 English stemmer. The zero value is ready to use
// and safe for concurrent use.
type Snowball struct{}

// New returns the default stemmer.
func New() Snowball {
	return Snowball{}
}

// Stem applies the Porter2 rules until the word stops changing, so that
// stemming an already stemmed word is a no-op.
func (Snowball) Stem(word string) string {
	for i := 0; i < maxPasses; i++ {
		next := english.Stem(word, false)
		if next == word {
			break
		}
		word = next
	}
	return word
}

// Phrase stems term as one string after collapsing its whitespace. Suffix
// rules only match at the end of the string, so in an n-gram only the last
// word changes: "running models" becomes "running model".
func Phrase(s Stemmer, term string) string {
	return s.Stem(strings.Join(strings.Fields(term), " "))
}
