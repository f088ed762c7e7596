// Package store persists extraction results so that they can be re-ranked
// and exported after the upload request has finished.
package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
)

// Schema creates the extractions table. It is idempotent.
//
//go:embed schema.sql
var Schema string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Extraction is one processed (or queued) document. Keywords holds the full
// cleaned list in filter order, never a ranked or truncated view.
type Extraction struct {
	ID        string             `json:"id"`
	Filename  string             `json:"filename"`
	Status    Status             `json:"status"`
	Preview   string             `json:"preview"`
	TermCount int                `json:"term_count"`
	Keywords  []keywords.Keyword `json:"keywords"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store is implemented by Postgres and the in-memory fallback. Get returns
// errors.ErrExtractionNotFound for unknown IDs.
type Store interface {
	Create(ctx context.Context, e *Extraction) error
	Complete(ctx context.Context, id, preview string, termCount int, kws []keywords.Keyword) error
	Fail(ctx context.Context, id, reason string) error
	Get(ctx context.Context, id string) (*Extraction, error)
}
