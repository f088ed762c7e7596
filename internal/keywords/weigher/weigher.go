// Package weigher turns document text into weighted unigram and bigram
// terms. It lower-cases input, splits on non-word boundaries, drops
// stop-words before n-grams are formed, scores each term by its
// L2-normalised frequency in the document, and stems the result.
package weigher

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stemmer"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
)

// minTokenLength is the shortest token, in runes, that can become a term.
const minTokenLength = 2

// maxNGram is the longest n-gram the vocabulary contains.
const maxNGram = 2

// Token represents a single normalised word and its position among the
// words that survived stop-word removal.
type Token struct {
	Term     string
	Position int
}

// Weigher scores the terms of a single document. It holds no mutable state
// and is safe for concurrent use.
type Weigher struct {
	stopwords *stopwords.Set
	stemmer   stemmer.Stemmer
}

// New creates a Weigher. A nil stemmer leaves terms unstemmed.
func New(stop *stopwords.Set, st stemmer.Stemmer) *Weigher {
	return &Weigher{stopwords: stop, stemmer: st}
}

// Tokenize breaks text into lowercased Tokens with stop-words and
// single-rune words removed.
func (w *Weigher) Tokenize(text string) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		if utf8.RuneCountInString(word) < minTokenLength {
			continue
		}
		if w.stopwords.Contains(word) {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Weigh returns one ScoredTerm per distinct unigram and bigram of text,
// ordered by the unstemmed term. Empty input or input made only of
// stop-words and symbols yields an empty slice.
func (w *Weigher) Weigh(text string) []keywords.ScoredTerm {
	counts := countNGrams(w.Tokenize(text))
	if len(counts) == 0 {
		return []keywords.ScoredTerm{}
	}

	vocab := make([]string, 0, len(counts))
	var sumSquares float64
	for term, n := range counts {
		vocab = append(vocab, term)
		sumSquares += float64(n) * float64(n)
	}
	sort.Strings(vocab)
	norm := math.Sqrt(sumSquares)

	result := make([]keywords.ScoredTerm, 0, len(vocab))
	for _, term := range vocab {
		result = append(result, keywords.ScoredTerm{
			Term:  w.stem(term),
			Score: float64(counts[term]) / norm,
		})
	}
	return result
}

func (w *Weigher) stem(term string) string {
	if w.stemmer == nil {
		return term
	}
	return stemmer.Phrase(w.stemmer, term)
}

// countNGrams counts every contiguous run of 1..maxNGram tokens.
func countNGrams(tokens []Token) map[string]int {
	counts := make(map[string]int, len(tokens)*maxNGram)
	for i := range tokens {
		gram := tokens[i].Term
		counts[gram]++
		for n := 2; n <= maxNGram && i+n <= len(tokens); n++ {
			gram += " " + tokens[i+n-1].Term
			counts[gram]++
		}
	}
	return counts
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
