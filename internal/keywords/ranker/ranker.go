// Package ranker orders keywords by score, optionally narrowed to those
// containing a substring, and truncates to the top K.
package ranker

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
)

// Rank returns the keywords containing substring (case-insensitive), sorted
// by descending score and truncated to topK when topK > 0. Keywords with
// equal scores keep their relative input order. The input slice is never
// modified, so callers can re-rank the same base list on every request.
func Rank(kws []keywords.Keyword, substring string, topK int) []keywords.Keyword {
	needle := strings.ToLower(substring)
	result := make([]keywords.Keyword, 0, len(kws))
	for _, kw := range kws {
		if needle == "" || strings.Contains(strings.ToLower(kw.Keyword), needle) {
			result = append(result, kw)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if topK > 0 && len(result) > topK {
		result = result[:topK]
	}
	return result
}

// Top returns the first n keywords of an already ranked list.
func Top(ranked []keywords.Keyword, n int) []string {
	if n > len(ranked) || n <= 0 {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, kw := range ranked[:n] {
		out = append(out, kw.Keyword)
	}
	return out
}
