package weigher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stemmer"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
)

const sampleText = "Data science data Science models. Data models improve over time."

func newTestWeigher(t *testing.T) *Weigher {
	t.Helper()
	stop, err := stopwords.ForLanguage("english")
	require.NoError(t, err)
	return New(stop, stemmer.New())
}

func scoresByTerm(terms []keywords.ScoredTerm) map[string]float64 {
	out := make(map[string]float64, len(terms))
	for _, st := range terms {
		out[st.Term] = st.Score
	}
	return out
}

func TestTokenizeDropsStopwordsAndShortWords(t *testing.T) {
	w := newTestWeigher(t)
	tokens := w.Tokenize("The quick brown fox, a lazy dog's X-ray!")

	var terms []string
	for i, tok := range tokens {
		assert.Equal(t, i, tok.Position)
		terms = append(terms, tok.Term)
	}
	assert.Equal(t, []string{"quick", "brown", "fox", "lazy", "dog", "ray"}, terms)
}

func TestWeighSampleText(t *testing.T) {
	w := newTestWeigher(t)
	terms := w.Weigh(sampleText)

	got := make([]string, 0, len(terms))
	for _, st := range terms {
		got = append(got, st.Term)
	}
	assert.Equal(t, []string{
		"data", "data model", "data scienc", "improv", "improve tim",
		"model", "models data", "models improv", "scienc", "science data",
		"science model", "time",
	}, got)

	scores := scoresByTerm(terms)
	norm := math.Sqrt(29)
	assert.InDelta(t, 3/norm, scores["data"], 1e-12)
	assert.InDelta(t, 2/norm, scores["scienc"], 1e-12)
	assert.InDelta(t, 2/norm, scores["data scienc"], 1e-12)
	assert.InDelta(t, 1/norm, scores["improve tim"], 1e-12)

	for term, score := range scores {
		if term != "data" {
			assert.Less(t, score, scores["data"], term)
		}
	}
}

func TestWeighVectorHasUnitNorm(t *testing.T) {
	w := newTestWeigher(t)
	var sum float64
	for _, st := range w.Weigh(sampleText) {
		assert.GreaterOrEqual(t, st.Score, 0.0)
		sum += st.Score * st.Score
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestWeighBigramsSpanRemovedStopwords(t *testing.T) {
	w := New(stopwords.New("the", "of"), nil)
	scores := scoresByTerm(w.Weigh("history of the internet"))

	assert.Contains(t, scores, "history internet")
	assert.NotContains(t, scores, "of")
	assert.NotContains(t, scores, "the internet")
}

func TestWeighEmptyInputs(t *testing.T) {
	w := newTestWeigher(t)
	for _, text := range []string{"", "   ", "the and of", "!!! ??? ---", "a b c"} {
		terms := w.Weigh(text)
		require.NotNil(t, terms, text)
		assert.Empty(t, terms, text)
	}
}

func TestWeighIsDeterministic(t *testing.T) {
	w := newTestWeigher(t)
	first := w.Weigh(sampleText)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, w.Weigh(sampleText))
	}
}

func TestWeighStemCollisionsKeepBothEntries(t *testing.T) {
	w := New(stopwords.New("the"), stemmer.New())
	terms := w.Weigh("model models")

	var modelCount int
	for _, st := range terms {
		if st.Term == "model" {
			modelCount++
		}
	}
	assert.Equal(t, 2, modelCount)
}

func TestWeighStemsBigramAsOneString(t *testing.T) {
	w := New(stopwords.New("the"), stemmer.New())
	scores := scoresByTerm(w.Weigh("Running models"))

	assert.Contains(t, scores, "run")
	assert.Contains(t, scores, "model")
	assert.Contains(t, scores, "running model")
	assert.NotContains(t, scores, "run model")
}

func TestWeighUnicodeWords(t *testing.T) {
	w := New(stopwords.New("und"), nil)
	scores := scoresByTerm(w.Weigh("Straße und Größe"))
	assert.Contains(t, scores, "straße größe")
	assert.Contains(t, scores, "größe")
}
