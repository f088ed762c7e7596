// Package analytics tracks what the extraction service does: handlers and
// the worker emit ExtractionEvents through a Collector onto Kafka, and an
// Aggregator folds the stream into the stats served at /api/v1/analytics.
package analytics

import "time"

type EventType string

const (
	EventExtraction   EventType = "extraction"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
)

// Source names the surface that produced an event.
const (
	SourceAPI    = "api"
	SourceWorker = "worker"
)

type ExtractionEvent struct {
	Type         EventType `json:"type"`
	Source       string    `json:"source"`
	ExtractionID string    `json:"extraction_id,omitempty"`
	Format       string    `json:"format"`
	SizeBytes    int64     `json:"size_bytes"`
	TermCount    int       `json:"term_count"`
	KeywordCount int       `json:"keyword_count"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	// TopKeywords holds the highest-scoring keywords of the document.
	TopKeywords  []string  `json:"top_keywords,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}
