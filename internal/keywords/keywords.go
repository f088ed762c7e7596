// Package keywords defines the values that flow through the keyword
// extraction pipeline: weighted terms produced by the weigher and the
// cleaned keywords produced by the filter.
package keywords

// ScoredTerm is a one- or two-word term and its weight within a single
// document. Term holds the stemmed form; Score is non-negative.
type ScoredTerm struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Keyword is a cleaned, deduplicated term ready for ranking and display.
type Keyword struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}
