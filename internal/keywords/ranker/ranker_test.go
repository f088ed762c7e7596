package ranker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
)

func randomKeywords(n int, seed int64) []keywords.Keyword {
	rng := rand.New(rand.NewSource(seed))
	out := make([]keywords.Keyword, n)
	for i := range out {
		out[i] = keywords.Keyword{
			Keyword: fmt.Sprintf("keyword%03d", i),
			Score:   float64(rng.Intn(50)) / 50,
		}
	}
	return out
}

func TestRankSortsDescending(t *testing.T) {
	kws := randomKeywords(250, 1)
	ranked := Rank(kws, "", 0)

	require.Len(t, ranked, len(kws))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	kws := []keywords.Keyword{
		{Keyword: "first", Score: 0.5},
		{Keyword: "second", Score: 0.9},
		{Keyword: "third", Score: 0.5},
	}
	ranked := Rank(kws, "", 0)
	assert.Equal(t, []string{"second", "first", "third"}, Top(ranked, 0))
}

func TestRankTruncationIsPrefix(t *testing.T) {
	kws := randomKeywords(250, 2)
	full := Rank(kws, "", 0)
	top := Rank(kws, "", 100)

	require.Len(t, top, 100)
	assert.Equal(t, full[:100], top)

	small := Rank(kws[:10], "", 100)
	assert.Len(t, small, 10)
}

func TestRankSubstringFilter(t *testing.T) {
	kws := []keywords.Keyword{
		{Keyword: "data scienc", Score: 0.3},
		{Keyword: "model", Score: 0.5},
		{Keyword: "scienc", Score: 0.4},
		{Keyword: "improv", Score: 0.1},
	}

	got := Rank(kws, "SCIEN", 0)
	assert.Equal(t, []keywords.Keyword{
		{Keyword: "scienc", Score: 0.4},
		{Keyword: "data scienc", Score: 0.3},
	}, got)
	for _, kw := range got {
		assert.True(t, strings.Contains(kw.Keyword, "scien"))
	}

	assert.ElementsMatch(t, kws, Rank(kws, "", 0))
	assert.Empty(t, Rank(kws, "zzz", 0))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	kws := randomKeywords(50, 3)
	before := append([]keywords.Keyword(nil), kws...)

	_ = Rank(kws, "keyword01", 5)
	_ = Rank(kws, "", 10)

	assert.Equal(t, before, kws)
}

func TestRankRepeatedFiltersDoNotCompound(t *testing.T) {
	kws := []keywords.Keyword{
		{Keyword: "alpha", Score: 0.1},
		{Keyword: "beta", Score: 0.2},
	}
	assert.Len(t, Rank(kws, "alpha", 0), 1)
	assert.Len(t, Rank(kws, "beta", 0), 1)
	assert.Len(t, Rank(kws, "", 0), 2)
}

func TestRankEmpty(t *testing.T) {
	got := Rank(nil, "x", 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTop(t *testing.T) {
	ranked := []keywords.Keyword{{Keyword: "a"}, {Keyword: "b"}, {Keyword: "c"}}
	assert.Equal(t, []string{"a", "b"}, Top(ranked, 2))
	assert.Equal(t, []string{"a", "b", "c"}, Top(ranked, 10))
}
