// Package jobs queues documents for asynchronous keyword extraction. A job
// is a PENDING row in the extraction store plus an ExtractRequestEvent on
// Kafka; the worker picks the event up and completes the row.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
)

// ExtractRequestEvent carries already-decoded document text to the worker.
type ExtractRequestEvent struct {
	ExtractionID string    `json:"extraction_id"`
	Filename     string    `json:"filename"`
	Format       string    `json:"format"`
	SizeBytes    int64     `json:"size_bytes"`
	Text         string    `json:"text"`
	RequestID    string    `json:"request_id,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// ExtractCompleteEvent is published by the worker once a job settles.
type ExtractCompleteEvent struct {
	ExtractionID string       `json:"extraction_id"`
	Status       store.Status `json:"status"`
	TermCount    int          `json:"term_count"`
	KeywordCount int          `json:"keyword_count"`
	TopKeywords  []string     `json:"top_keywords,omitempty"`
	Error        string       `json:"error,omitempty"`
	LatencyMs    int64        `json:"latency_ms"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// JobResponse is returned by the job submission endpoint.
type JobResponse struct {
	ID       string       `json:"id"`
	Filename string       `json:"filename"`
	Status   store.Status `json:"status"`
}

// Submitter persists the PENDING row and publishes the request event.
type Submitter struct {
	store           store.Store
	producer        kafka.Publisher
	maxMessageBytes int
	logger          *slog.Logger
}

func NewSubmitter(st store.Store, producer kafka.Publisher, maxMessageBytes int) *Submitter {
	return &Submitter{
		store:           st,
		producer:        producer,
		maxMessageBytes: maxMessageBytes,
		logger:          slog.Default().With("component", "job-submitter"),
	}
}

// Submit queues text for extraction. If the event cannot be published after
// retries the row is marked FAILED so that it never stays PENDING forever.
func (s *Submitter) Submit(ctx context.Context, filename string, format document.Format, size int64, text, requestID string) (*JobResponse, error) {
	event := ExtractRequestEvent{
		ExtractionID: uuid.NewString(),
		Filename:     filename,
		Format:       string(format),
		SizeBytes:    size,
		Text:         text,
		RequestID:    requestID,
		RequestedAt:  time.Now().UTC(),
	}
	if s.maxMessageBytes > 0 {
		encoded, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("encoding job: %w", err)
		}
		if len(encoded) > s.maxMessageBytes {
			return nil, apperrors.Newf(apperrors.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge,
				"document text is %d bytes encoded, asynchronous jobs accept at most %d; use the synchronous endpoint",
				len(encoded), s.maxMessageBytes)
		}
	}

	if err := s.store.Create(ctx, &store.Extraction{
		ID:       event.ExtractionID,
		Filename: filename,
		Status:   store.StatusPending,
		Preview:  document.Preview(text),
	}); err != nil {
		return nil, fmt.Errorf("creating pending extraction: %w", err)
	}

	err := resilience.Retry(ctx, "publish-extract-request", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		return s.producer.Publish(ctx, kafka.Event{Key: event.ExtractionID, Value: event})
	})
	if err != nil {
		if failErr := s.store.Fail(ctx, event.ExtractionID, "could not queue job: "+err.Error()); failErr != nil {
			s.logger.Error("failed to mark unqueued job", "id", event.ExtractionID, "error", failErr)
		}
		return nil, fmt.Errorf("publishing extract request: %w", err)
	}

	s.logger.Info("extraction job queued", "id", event.ExtractionID, "filename", filename, "text_bytes", len(text))
	return &JobResponse{ID: event.ExtractionID, Filename: filename, Status: store.StatusPending}, nil
}
