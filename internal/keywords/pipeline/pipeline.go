// Package pipeline wires the weigher and the keyword filter into a single
// Extractor built from an explicit, immutable Config. An Extractor has no
// mutable state: every call owns the slices it produces, so one instance
// serves concurrent requests without locking.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/filter"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stemmer"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/weigher"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/tracing"
)

// Config is everything the pipeline needs. It is read-only once built.
type Config struct {
	Stopwords *stopwords.Set
	Stemmer   stemmer.Stemmer
	MinLength int
	MaxWords  int
}

// NewConfig loads the stopword set named by cfg and fills in the default
// stemmer. A missing or unreadable stopword list is an error.
func NewConfig(cfg config.ExtractionConfig) (Config, error) {
	stop, err := stopwords.Load(cfg.Language, cfg.StopwordsPath)
	if err != nil {
		return Config{}, fmt.Errorf("loading stopwords: %w", err)
	}
	return Config{
		Stopwords: stop,
		Stemmer:   stemmer.New(),
		MinLength: cfg.MinLength,
		MaxWords:  cfg.MaxWords,
	}, nil
}

// Result is the outcome of one extraction.
type Result struct {
	// TermCount is the number of weighted terms before cleaning.
	TermCount int               `json:"term_count"`
	Keywords  []keywords.Keyword `json:"keywords"`
}

// Extractor turns text into cleaned keywords.
type Extractor struct {
	weigher *weigher.Weigher
	filter  *filter.Filter
	logger  *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	return &Extractor{
		weigher: weigher.New(cfg.Stopwords, cfg.Stemmer),
		filter:  filter.New(cfg.Stopwords, cfg.MinLength, cfg.MaxWords),
		logger:  slog.Default().With("component", "keyword-pipeline"),
	}
}

// Weigh scores the unigrams and bigrams of text.
func (e *Extractor) Weigh(text string) []keywords.ScoredTerm {
	return e.weigher.Weigh(text)
}

// CleanAndFilter turns weighted terms into unique display keywords in
// encounter order.
func (e *Extractor) CleanAndFilter(terms []keywords.ScoredTerm) []keywords.Keyword {
	return e.filter.CleanAndFilter(terms)
}

// Extract runs Weigh then CleanAndFilter. The context is only used to attach
// tracing spans; extraction itself cannot be cancelled.
func (e *Extractor) Extract(ctx context.Context, text string) Result {
	_, weighSpan := tracing.StartChildSpan(ctx, "weigh")
	terms := e.Weigh(text)
	weighSpan.SetAttr("terms", len(terms))
	weighSpan.End()

	_, filterSpan := tracing.StartChildSpan(ctx, "clean_and_filter")
	kws := e.CleanAndFilter(terms)
	filterSpan.SetAttr("keywords", len(kws))
	filterSpan.End()

	e.logger.Debug("keywords extracted",
		"text_bytes", len(text),
		"terms", len(terms),
		"keywords", len(kws),
	)
	return Result{TermCount: len(terms), Keywords: kws}
}
