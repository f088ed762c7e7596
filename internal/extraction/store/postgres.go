package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/postgres"
)

// Postgres stores extractions in the extractions table, keywords as JSONB.
type Postgres struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgres(db *postgres.Client) *Postgres {
	return &Postgres{
		db:     db,
		logger: slog.Default().With("component", "extraction-store"),
	}
}

func (s *Postgres) Create(ctx context.Context, e *Extraction) error {
	kws, err := marshalKeywords(e.Keywords)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO extractions (id, filename, status, preview, term_count, keywords, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Filename, string(e.Status), e.Preview, e.TermCount, kws, e.Error, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting extraction %s: %w", e.ID, err)
	}
	s.logger.Debug("extraction stored", "id", e.ID, "status", e.Status, "keywords", len(e.Keywords))
	return nil
}

func (s *Postgres) Complete(ctx context.Context, id, preview string, termCount int, kws []keywords.Keyword) error {
	data, err := marshalKeywords(kws)
	if err != nil {
		return err
	}
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE extractions
		 SET status = $2, preview = $3, term_count = $4, keywords = $5, error = '', updated_at = NOW()
		 WHERE id = $1`,
		id, string(StatusCompleted), preview, termCount, data,
	)
	if err != nil {
		return fmt.Errorf("completing extraction %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (s *Postgres) Fail(ctx context.Context, id, reason string) error {
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE extractions SET status = $2, error = $3, updated_at = NOW() WHERE id = $1`,
		id, string(StatusFailed), reason,
	)
	if err != nil {
		return fmt.Errorf("failing extraction %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (s *Postgres) Get(ctx context.Context, id string) (*Extraction, error) {
	var (
		e      Extraction
		status string
		data   []byte
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, filename, status, preview, term_count, keywords, error, created_at, updated_at
		 FROM extractions WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Filename, &status, &e.Preview, &e.TermCount, &data, &e.Error, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading extraction %s: %w", id, err)
	}
	e.Status = Status(status)
	if err := json.Unmarshal(data, &e.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords of %s: %w", id, err)
	}
	return &e, nil
}

func marshalKeywords(kws []keywords.Keyword) ([]byte, error) {
	if kws == nil {
		kws = []keywords.Keyword{}
	}
	data, err := json.Marshal(kws)
	if err != nil {
		return nil, fmt.Errorf("encoding keywords: %w", err)
	}
	return data, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of %s: %w", id, err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return apperrors.Newf(apperrors.ErrExtractionNotFound, http.StatusNotFound, "no extraction with id %s", id)
}
