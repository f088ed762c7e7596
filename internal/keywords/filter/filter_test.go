package filter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
)

func newTestFilter(t *testing.T) (*Filter, *stopwords.Set) {
	t.Helper()
	stop, err := stopwords.ForLanguage("english")
	require.NoError(t, err)
	return New(stop, DefaultMinLength, DefaultMaxWords), stop
}

func TestClean(t *testing.T) {
	assert.Equal(t, "hello world", Clean("Hello, World!"))
	assert.Equal(t, "covid19", Clean("COVID-19"))
	assert.Equal(t, "café", Clean("Café™"))
	assert.Equal(t, "", Clean("--!!--"))
}

func TestCleanKeepsNonASCIILetters(t *testing.T) {
	assert.Equal(t, "straße", Clean("Straße"))
	assert.Equal(t, "naïve résumé", Clean("Naïve résumé!"))
	assert.Equal(t, "東京2020", Clean("東京-2020"))

	f, _ := newTestFilter(t)
	got := f.CleanAndFilter([]keywords.ScoredTerm{
		{Term: "résumé", Score: 0.4},
		{Term: "café", Score: 0.3}, // four runes, dropped by length
	})
	assert.Equal(t, []keywords.Keyword{{Keyword: "résumé", Score: 0.4}}, got)
}

func TestCleanAndFilterRules(t *testing.T) {
	f, _ := newTestFilter(t)
	terms := []keywords.ScoredTerm{
		{Term: "data", Score: 0.9},                // length 4
		{Term: "Scienc", Score: 0.5},              // kept, lowercased
		{Term: "model", Score: 0.4},               // length 5, kept
		{Term: "yourselves", Score: 0.3},          // stopword
		{Term: "big data scienc", Score: 0.3},     // three words
		{Term: "data scienc", Score: 0.3},         // two words, kept
		{Term: "scienc!", Score: 0.1},             // duplicate after cleaning
		{Term: "it's", Score: 0.2},                // cleaned to "its", too short
		{Term: "  ", Score: 0.2},                  // nothing left
		{Term: "more than", Score: 0.2},           // multi-word stopwords survive
	}

	got := f.CleanAndFilter(terms)
	assert.Equal(t, []keywords.Keyword{
		{Keyword: "scienc", Score: 0.5},
		{Keyword: "model", Score: 0.4},
		{Keyword: "data scienc", Score: 0.3},
		{Keyword: "more than", Score: 0.2},
	}, got)
}

func TestCleanAndFilterFirstScoreWins(t *testing.T) {
	f, _ := newTestFilter(t)
	got := f.CleanAndFilter([]keywords.ScoredTerm{
		{Term: "model", Score: 0.1},
		{Term: "model", Score: 0.9},
		{Term: "MODEL.", Score: 0.5},
	})
	assert.Equal(t, []keywords.Keyword{{Keyword: "model", Score: 0.1}}, got)
}

func TestCleanAndFilterEmpty(t *testing.T) {
	f, _ := newTestFilter(t)
	got := f.CleanAndFilter(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCleanAndFilterInvariants(t *testing.T) {
	f, stop := newTestFilter(t)
	var terms []keywords.ScoredTerm
	for _, w := range strings.Fields("alpha beta gamma delta epsilon theta iota kappa lambda mu") {
		terms = append(terms,
			keywords.ScoredTerm{Term: w, Score: 0.1},
			keywords.ScoredTerm{Term: w + " " + w, Score: 0.2},
			keywords.ScoredTerm{Term: w + " and " + w, Score: 0.3},
			keywords.ScoredTerm{Term: strings.ToUpper(w) + "!", Score: 0.4},
		)
	}

	got := f.CleanAndFilter(terms)
	require.NotEmpty(t, got)
	seen := map[string]bool{}
	for _, kw := range got {
		assert.Greater(t, utf8.RuneCountInString(kw.Keyword), 4, kw.Keyword)
		n := len(strings.Fields(kw.Keyword))
		assert.True(t, n == 1 || n == 2, kw.Keyword)
		assert.False(t, stop.Contains(kw.Keyword), kw.Keyword)
		assert.False(t, seen[kw.Keyword], "duplicate %q", kw.Keyword)
		seen[kw.Keyword] = true
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	f := New(nil, -1, 0)
	assert.Equal(t, DefaultMinLength, f.minLength)
	assert.Equal(t, DefaultMaxWords, f.maxWords)

	loose := New(nil, 0, 3)
	got := loose.CleanAndFilter([]keywords.ScoredTerm{{Term: "a b c", Score: 1}})
	assert.Equal(t, []keywords.Keyword{{Keyword: "a b c", Score: 1}}, got)
}
