// Package worker settles asynchronous extraction jobs. It consumes
// ExtractRequestEvents, runs the keyword pipeline, completes or fails the
// stored row and announces the outcome on the extract-complete topic.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
)

const topKeywords = 5

var storeRetry = resilience.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	RetryIf: func(err error) bool {
		return !errors.Is(err, apperrors.ErrExtractionNotFound)
	},
}

// Worker holds the collaborators of HandleMessage. Completions, Collector
// and Metrics may be nil.
type Worker struct {
	Service     *extraction.Service
	Store       store.Store
	Completions kafka.Publisher
	Collector   *analytics.Collector
	Metrics     *metrics.Metrics
}

// HandleMessage returns the kafka.MessageHandler for the extract-request
// topic. Undecodable events and events whose row no longer exists are
// logged and skipped. An error is returned only when the row could not be
// settled, which leaves the offset uncommitted.
func HandleMessage(w *Worker) kafka.MessageHandler {
	log := slog.Default().With("component", "extraction-worker")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[jobs.ExtractRequestEvent](value)
		if err != nil || event.ExtractionID == "" {
			log.Error("failed to decode extract request",
				"error", err,
				"key", string(key),
			)
			w.observe("invalid")
			return nil
		}
		if event.RequestID != "" {
			ctx = logger.WithRequestID(ctx, event.RequestID)
		}
		log := logger.FromContext(ctx).With("component", "extraction-worker", "id", event.ExtractionID)
		log.Debug("processing extract request", "filename", event.Filename, "text_bytes", len(event.Text))

		start := time.Now()
		out, runErr := w.Service.Run(ctx, event.Text)
		complete := jobs.ExtractCompleteEvent{ExtractionID: event.ExtractionID}
		if runErr != nil {
			log.Error("extraction job failed", "error", runErr)
			err = resilience.Retry(ctx, "fail-extraction", storeRetry, func() error {
				return w.Store.Fail(ctx, event.ExtractionID, runErr.Error())
			})
			complete.Status = store.StatusFailed
			complete.Error = runErr.Error()
		} else {
			err = resilience.Retry(ctx, "complete-extraction", storeRetry, func() error {
				return w.Store.Complete(ctx, event.ExtractionID, document.Preview(event.Text),
					out.Result.TermCount, out.Result.Keywords)
			})
			complete.Status = store.StatusCompleted
			complete.TermCount = out.Result.TermCount
			complete.KeywordCount = len(out.Result.Keywords)
			complete.TopKeywords = ranker.Top(ranker.Rank(out.Result.Keywords, "", topKeywords), topKeywords)
		}
		if errors.Is(err, apperrors.ErrExtractionNotFound) {
			log.Warn("extraction row missing, dropping job")
			w.observe("orphaned")
			return nil
		}
		if err != nil {
			w.observe("error")
			return fmt.Errorf("settling extraction %s: %w", event.ExtractionID, err)
		}
		complete.LatencyMs = time.Since(start).Milliseconds()
		complete.CompletedAt = time.Now().UTC()

		w.publish(ctx, log, complete)
		w.track(event, complete, out)
		w.observe(string(complete.Status))
		log.Info("extraction job settled",
			"status", complete.Status,
			"keywords", complete.KeywordCount,
			"latency_ms", complete.LatencyMs,
		)
		return nil
	}
}

func (w *Worker) publish(ctx context.Context, log *slog.Logger, complete jobs.ExtractCompleteEvent) {
	if w.Completions == nil {
		return
	}
	if err := w.Completions.Publish(ctx, kafka.Event{Key: complete.ExtractionID, Value: complete}); err != nil {
		log.Warn("failed to publish extract-complete event", "error", err)
	}
}

func (w *Worker) track(event jobs.ExtractRequestEvent, complete jobs.ExtractCompleteEvent, out *extraction.Outcome) {
	ev := analytics.ExtractionEvent{
		Type:         analytics.EventJobCompleted,
		Source:       analytics.SourceWorker,
		ExtractionID: event.ExtractionID,
		Format:       event.Format,
		SizeBytes:    event.SizeBytes,
		TermCount:    complete.TermCount,
		KeywordCount: complete.KeywordCount,
		LatencyMs:    complete.LatencyMs,
		TopKeywords:  complete.TopKeywords,
		Error:        complete.Error,
		RequestID:    event.RequestID,
	}
	if complete.Status == store.StatusFailed {
		ev.Type = analytics.EventJobFailed
	}
	if out != nil {
		ev.CacheHit = out.CacheHit
	}
	w.Collector.Track(ev)
}

func (w *Worker) observe(status string) {
	if w.Metrics == nil {
		return
	}
	w.Metrics.JobsProcessedTotal.WithLabelValues(status).Inc()
}
