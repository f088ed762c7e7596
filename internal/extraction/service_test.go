package extraction

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stemmer"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
)

type slowExtractor struct {
	delay time.Duration
}

func (s slowExtractor) Extract(ctx context.Context, text string) pipeline.Result {
	time.Sleep(s.delay)
	return pipeline.Result{TermCount: 1, Keywords: []keywords.Keyword{{Keyword: "late", Score: 1}}}
}

func newPipeline(t *testing.T) *pipeline.Extractor {
	t.Helper()
	stop, err := stopwords.ForLanguage("english")
	require.NoError(t, err)
	return pipeline.New(pipeline.Config{Stopwords: stop, Stemmer: stemmer.New(), MinLength: 4, MaxWords: 2})
}

func TestRunExtractsAndRecordsMetrics(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	svc := NewService(newPipeline(t), nil, time.Second, m)

	out, err := svc.Run(context.Background(), "Data science uses data. Models improve data science.")
	require.NoError(t, err)
	assert.False(t, out.CacheHit)
	assert.NotEmpty(t, out.Result.Keywords)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("success")))

	out, err = svc.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, out.Result.Keywords)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("empty")))
}

func TestRunTimesOut(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	svc := NewService(slowExtractor{delay: 50 * time.Millisecond}, nil, 5*time.Millisecond, m)

	out, err := svc.Run(context.Background(), "anything")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("timeout")))
}

func TestRunWithoutMetrics(t *testing.T) {
	svc := NewService(slowExtractor{}, nil, 0, nil)
	out, err := svc.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "late", out.Result.Keywords[0].Keyword)
}
