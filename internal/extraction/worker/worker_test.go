package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stemmer"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/stopwords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type stuckExtractor struct{}

func (stuckExtractor) Extract(ctx context.Context, _ string) pipeline.Result {
	time.Sleep(50 * time.Millisecond)
	return pipeline.Result{}
}

type brokenStore struct {
	store.Store
}

func (brokenStore) Complete(context.Context, string, string, int, []keywords.Keyword) error {
	return errors.New("connection reset")
}

func newWorker(t *testing.T, extractor extraction.Extractor, timeout time.Duration) (*Worker, *store.Memory, *recordingPublisher) {
	t.Helper()
	st := store.NewMemory(10)
	pub := &recordingPublisher{}
	return &Worker{
		Service:     extraction.NewService(extractor, nil, timeout, nil),
		Store:       st,
		Completions: pub,
		Metrics:     metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}, st, pub
}

func englishPipeline(t *testing.T) *pipeline.Extractor {
	t.Helper()
	stop, err := stopwords.ForLanguage("english")
	require.NoError(t, err)
	return pipeline.New(pipeline.Config{Stopwords: stop, Stemmer: stemmer.New(), MinLength: 4, MaxWords: 2})
}

func pendingJob(t *testing.T, st store.Store, text string) []byte {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, st.Create(context.Background(), &store.Extraction{ID: id, Filename: "notes.txt", Status: store.StatusPending}))
	value, err := json.Marshal(jobs.ExtractRequestEvent{ExtractionID: id, Filename: "notes.txt", Format: "txt", Text: text})
	require.NoError(t, err)
	return value
}

func TestHandleMessageCompletesJob(t *testing.T) {
	w, st, pub := newWorker(t, englishPipeline(t), time.Second)
	value := pendingJob(t, st, "Data science uses data. Models improve data science.")

	require.NoError(t, HandleMessage(w)(context.Background(), nil, value))

	event, err := kafka.DecodeJSON[jobs.ExtractRequestEvent](value)
	require.NoError(t, err)
	got, err := st.Get(context.Background(), event.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.NotEmpty(t, got.Keywords)
	assert.Positive(t, got.TermCount)

	require.Len(t, pub.events, 1)
	complete := pub.events[0].Value.(jobs.ExtractCompleteEvent)
	assert.Equal(t, store.StatusCompleted, complete.Status)
	assert.Equal(t, len(got.Keywords), complete.KeywordCount)
	assert.LessOrEqual(t, len(complete.TopKeywords), 5)
	assert.Equal(t, 1.0, testutil.ToFloat64(w.Metrics.JobsProcessedTotal.WithLabelValues("COMPLETED")))
}

func TestHandleMessageFailsJobOnTimeout(t *testing.T) {
	w, st, pub := newWorker(t, stuckExtractor{}, 5*time.Millisecond)
	value := pendingJob(t, st, "anything at all")

	require.NoError(t, HandleMessage(w)(context.Background(), nil, value))

	event, _ := kafka.DecodeJSON[jobs.ExtractRequestEvent](value)
	got, err := st.Get(context.Background(), event.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "timed out")
	require.Len(t, pub.events, 1)
	assert.Equal(t, store.StatusFailed, pub.events[0].Value.(jobs.ExtractCompleteEvent).Status)
}

func TestHandleMessageSkipsGarbageAndOrphans(t *testing.T) {
	w, _, pub := newWorker(t, englishPipeline(t), time.Second)
	handle := HandleMessage(w)

	assert.NoError(t, handle(context.Background(), []byte("k"), []byte("{broken")))

	orphan, err := json.Marshal(jobs.ExtractRequestEvent{ExtractionID: uuid.NewString(), Text: "data science"})
	require.NoError(t, err)
	assert.NoError(t, handle(context.Background(), nil, orphan))

	assert.Empty(t, pub.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(w.Metrics.JobsProcessedTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.Metrics.JobsProcessedTotal.WithLabelValues("orphaned")))
}

func TestHandleMessageLeavesOffsetWhenStoreFails(t *testing.T) {
	w, st, pub := newWorker(t, englishPipeline(t), time.Second)
	value := pendingJob(t, st, "Data science uses data.")
	w.Store = brokenStore{Store: st}

	err := HandleMessage(w)(context.Background(), nil, value)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, pub.events)
}
