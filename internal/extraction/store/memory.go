package store

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
)

// DefaultMemoryEntries bounds the in-memory store.
const DefaultMemoryEntries = 1000

// Memory keeps the most recently used extractions in process memory. It
// backs the HTTP service when Postgres is disabled; older entries are evicted
// and their IDs start answering not found.
type Memory struct {
	entries *lru.Cache[string, Extraction]
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	// lru.New only fails on a non-positive size.
	entries, _ := lru.New[string, Extraction](size)
	return &Memory{entries: entries}
}

func (m *Memory) Create(_ context.Context, e *Extraction) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	m.entries.Add(e.ID, cloneExtraction(*e))
	return nil
}

func (m *Memory) Complete(_ context.Context, id, preview string, termCount int, kws []keywords.Keyword) error {
	e, ok := m.entries.Get(id)
	if !ok {
		return notFound(id)
	}
	e.Status = StatusCompleted
	e.Preview = preview
	e.TermCount = termCount
	e.Keywords = kws
	e.Error = ""
	e.UpdatedAt = time.Now().UTC()
	m.entries.Add(id, cloneExtraction(e))
	return nil
}

func (m *Memory) Fail(_ context.Context, id, reason string) error {
	e, ok := m.entries.Get(id)
	if !ok {
		return notFound(id)
	}
	e.Status = StatusFailed
	e.Error = reason
	e.UpdatedAt = time.Now().UTC()
	m.entries.Add(id, e)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Extraction, error) {
	e, ok := m.entries.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	e = cloneExtraction(e)
	return &e, nil
}

func (m *Memory) Len() int {
	return m.entries.Len()
}

func cloneExtraction(e Extraction) Extraction {
	if e.Keywords != nil {
		e.Keywords = append([]keywords.Keyword(nil), e.Keywords...)
	}
	return e
}
