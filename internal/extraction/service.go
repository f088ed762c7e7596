// Package extraction runs the keyword pipeline on behalf of the HTTP API and
// the job worker: through the result cache when one is configured, under a
// deadline, with metrics recorded for every run.
package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/cache"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
)

// Extractor is satisfied by *pipeline.Extractor.
type Extractor interface {
	Extract(ctx context.Context, text string) pipeline.Result
}

// Outcome is the result of one Run.
type Outcome struct {
	Result   pipeline.Result
	CacheHit bool
	Latency  time.Duration
}

type Service struct {
	extractor Extractor
	cache     *cache.ResultCache
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewService builds a Service. cache and m may be nil; a non-positive
// timeout disables the deadline.
func NewService(extractor Extractor, c *cache.ResultCache, timeout time.Duration, m *metrics.Metrics) *Service {
	return &Service{
		extractor: extractor,
		cache:     c,
		timeout:   timeout,
		metrics:   m,
	}
}

// Run extracts keywords from text. When the deadline passes first, the
// returned error matches errors.ErrTimeout and the late result is dropped.
func (s *Service) Run(ctx context.Context, text string) (*Outcome, error) {
	start := time.Now()
	var (
		result   pipeline.Result
		cacheHit bool
	)
	err := resilience.WithTimeout(ctx, s.timeout, "keyword-extraction", func(ctx context.Context) error {
		if s.cache == nil {
			result = s.extractor.Extract(ctx, text)
			return nil
		}
		cached, hit, err := s.cache.GetOrCompute(ctx, text, func() (*pipeline.Result, error) {
			res := s.extractor.Extract(ctx, text)
			return &res, nil
		})
		if err != nil {
			return err
		}
		result, cacheHit = *cached, hit
		return nil
	})
	latency := time.Since(start)
	if err != nil {
		s.observeFailure(err)
		return nil, err
	}
	s.observeSuccess(result, cacheHit, latency)
	return &Outcome{Result: result, CacheHit: cacheHit, Latency: latency}, nil
}

func (s *Service) observeFailure(err error) {
	if s.metrics == nil {
		return
	}
	status := "error"
	if errors.Is(err, apperrors.ErrTimeout) {
		status = "timeout"
	}
	s.metrics.ExtractionsTotal.WithLabelValues(status).Inc()
}

func (s *Service) observeSuccess(result pipeline.Result, cacheHit bool, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if len(result.Keywords) == 0 {
		status = "empty"
	}
	s.metrics.ExtractionsTotal.WithLabelValues(status).Inc()
	s.metrics.KeywordsPerDocument.Observe(float64(len(result.Keywords)))
	cacheStatus := "none"
	if s.cache != nil {
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
			s.metrics.CacheHitsTotal.Inc()
		} else {
			s.metrics.CacheMissesTotal.Inc()
		}
	}
	s.metrics.ExtractionLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
}
