package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (m *memBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		// an unknown key behaves like a transport-level miss
		return nil, nil
	}
	return v, nil
}

func (m *memBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memBackend) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		TermCount: 3,
		Keywords:  []keywords.Keyword{{Keyword: "scienc", Score: 0.5}},
	}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	c := New(newMemBackend(), config.RedisConfig{CacheTTL: time.Minute}, "fp", nil)
	ctx := context.Background()
	var calls atomic.Int32
	compute := func() (*pipeline.Result, error) {
		calls.Add(1)
		return sampleResult(), nil
	}

	res, hit, err := c.GetOrCompute(ctx, "some text", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, sampleResult(), res)

	res, hit, err = c.GetOrCompute(ctx, "some text", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, sampleResult(), res)
	assert.EqualValues(t, 1, calls.Load())

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestGetOrComputePropagatesError(t *testing.T) {
	c := New(newMemBackend(), config.RedisConfig{}, "fp", nil)
	_, _, err := c.GetOrCompute(context.Background(), "x", func() (*pipeline.Result, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
}

func TestFingerprintSeparatesKeys(t *testing.T) {
	backend := newMemBackend()
	a := New(backend, config.RedisConfig{}, Fingerprint(config.ExtractionConfig{Language: "english", MinLength: 4, MaxWords: 2}), nil)
	b := New(backend, config.RedisConfig{}, Fingerprint(config.ExtractionConfig{Language: "english", MinLength: 3, MaxWords: 2}), nil)
	ctx := context.Background()

	a.Set(ctx, "text", sampleResult())
	_, ok := b.Get(ctx, "text")
	assert.False(t, ok)
	_, ok = a.Get(ctx, "text")
	assert.True(t, ok)
}

func TestBackendFailureOpensBreaker(t *testing.T) {
	backend := newMemBackend()
	backend.err = errors.New("connection refused")
	c := New(backend, config.RedisConfig{}, "fp", nil)
	ctx := context.Background()

	var computed int
	for i := 0; i < 10; i++ {
		res, hit, err := c.GetOrCompute(ctx, "text", func() (*pipeline.Result, error) {
			computed++
			return sampleResult(), nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.NotNil(t, res)
	}
	assert.Equal(t, 10, computed)
	assert.Equal(t, resilience.StateOpen, c.BreakerState())
}

func TestInvalidate(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, config.RedisConfig{}, "fp", nil)
	ctx := context.Background()
	c.Set(ctx, "one", sampleResult())
	c.Set(ctx, "two", sampleResult())
	backend.data["unrelated"] = []byte("x")

	require.NoError(t, c.Invalidate(ctx))
	assert.Len(t, backend.data, 1)
}
