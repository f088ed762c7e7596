// Package handler serves the extraction HTTP API: uploads, stored
// extractions, report export, background jobs and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/cache"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/ranker"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/report"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/tracing"
)

// analyticsTopKeywords is how many keywords per document feed the analytics
// keyword leaderboard.
const analyticsTopKeywords = 5

// multipartOverhead is the allowance for form boundaries and headers on top
// of the document itself.
const multipartOverhead = 1 << 20

// Deps are the collaborators of the HTTP API. Service and Store are
// required; the rest may be nil when their backing system is disabled.
type Deps struct {
	Service   *extraction.Service
	Store     store.Store
	Cache     *cache.ResultCache
	Jobs      *jobs.Submitter
	Collector *analytics.Collector
	Metrics   *metrics.Metrics
	Tracer    *tracing.Tracer
}

type Handler struct {
	service   *extraction.Service
	store     store.Store
	cache     *cache.ResultCache
	jobs      *jobs.Submitter
	collector *analytics.Collector
	metrics   *metrics.Metrics
	tracer    *tracing.Tracer
	cfg       config.ExtractionConfig
	logger    *slog.Logger
}

func New(deps Deps, cfg config.ExtractionConfig) *Handler {
	return &Handler{
		service:   deps.Service,
		store:     deps.Store,
		cache:     deps.Cache,
		jobs:      deps.Jobs,
		collector: deps.Collector,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		cfg:       cfg,
		logger:    slog.Default().With("component", "extraction-handler"),
	}
}

// Register mounts the extraction API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/extractions", h.Extract)
	mux.HandleFunc("GET /api/v1/extractions/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/extractions/{id}/export", h.Export)
	mux.HandleFunc("POST /api/v1/jobs", h.SubmitJob)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// ExtractionResponse is the JSON view of one extraction. Keywords is the
// ranked, filtered and truncated view; TotalKeywords counts the full cleaned
// list it was cut from.
type ExtractionResponse struct {
	ID            string             `json:"id"`
	Filename      string             `json:"filename"`
	Status        store.Status       `json:"status"`
	Preview       string             `json:"preview"`
	Text          string             `json:"text,omitempty"`
	TermCount     int                `json:"term_count"`
	TotalKeywords int                `json:"total_keywords"`
	CacheHit      bool               `json:"cache_hit"`
	Keywords      []keywords.Keyword `json:"keywords"`
	Error         string             `json:"error,omitempty"`
}

// textRequest is the JSON alternative to a multipart upload.
type textRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// upload is a decoded request document.
type upload struct {
	filename string
	format   document.Format
	size     int64
	text     string
}

func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "extract_request", middleware.GetRequestID(r.Context()))
	defer span.Finish()
	log := logger.FromContext(ctx)

	filter, top, err := h.rankParams(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	doc, err := h.readDocument(w, r.WithContext(ctx))
	if err != nil {
		log.Warn("document rejected", "error", err)
		h.writeAppError(w, err)
		return
	}
	span.SetAttr("format", string(doc.format))
	span.SetAttr("size_bytes", doc.size)

	out, err := h.service.Run(ctx, doc.text)
	if err != nil {
		log.Error("keyword extraction failed", "filename", doc.filename, "error", err)
		h.writeAppError(w, err)
		return
	}
	cleaned := out.Result.Keywords

	id := uuid.NewString()
	preview := document.Preview(doc.text)
	err = resilience.Retry(ctx, "store-extraction", resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond}, func() error {
		return h.store.Create(ctx, &store.Extraction{
			ID:        id,
			Filename:  doc.filename,
			Status:    store.StatusCompleted,
			Preview:   preview,
			TermCount: out.Result.TermCount,
			Keywords:  cleaned,
		})
	})
	if err != nil {
		log.Error("failed to store extraction", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store extraction")
		return
	}

	ranked := ranker.Rank(cleaned, filter, top)
	latency := time.Since(start)
	log.Info("keywords extracted",
		"id", id,
		"filename", doc.filename,
		"format", doc.format,
		"terms", out.Result.TermCount,
		"keywords", len(cleaned),
		"returned", len(ranked),
		"cache_hit", out.CacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.collector.Track(analytics.ExtractionEvent{
		Type:         analytics.EventExtraction,
		Source:       analytics.SourceAPI,
		ExtractionID: id,
		Format:       string(doc.format),
		SizeBytes:    doc.size,
		TermCount:    out.Result.TermCount,
		KeywordCount: len(cleaned),
		LatencyMs:    latency.Milliseconds(),
		CacheHit:     out.CacheHit,
		TopKeywords:  ranker.Top(ranker.Rank(cleaned, "", analyticsTopKeywords), analyticsTopKeywords),
		RequestID:    middleware.GetRequestID(ctx),
	})

	resp := ExtractionResponse{
		ID:            id,
		Filename:      doc.filename,
		Status:        store.StatusCompleted,
		Preview:       preview,
		TermCount:     out.Result.TermCount,
		TotalKeywords: len(cleaned),
		CacheHit:      out.CacheHit,
		Keywords:      ranked,
	}
	if queryBool(r, "full_text") {
		resp.Text = doc.text
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Get re-ranks a stored extraction with the request's filter and top.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	filter, top, err := h.rankParams(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	e, err := h.load(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ExtractionResponse{
		ID:            e.ID,
		Filename:      e.Filename,
		Status:        e.Status,
		Preview:       e.Preview,
		TermCount:     e.TermCount,
		TotalKeywords: len(e.Keywords),
		Keywords:      ranker.Rank(e.Keywords, filter, top),
		Error:         e.Error,
	})
}

// Export downloads the ranked view of a completed extraction as text.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filter, top, err := h.rankParams(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	e, err := h.load(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if e.Status != store.StatusCompleted {
		h.writeAppError(w, apperrors.Newf(apperrors.ErrNotReady, http.StatusConflict,
			"extraction %s is %s", e.ID, strings.ToLower(string(e.Status))))
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.FileName}))
	w.WriteHeader(http.StatusOK)
	if err := report.Write(w, ranker.Rank(e.Keywords, filter, top)); err != nil {
		logger.FromContext(r.Context()).Error("failed to write export", "id", e.ID, "error", err)
	}
}

// SubmitJob decodes the document now, so that unreadable uploads fail fast,
// and leaves the weighing to the worker.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	if h.jobs == nil {
		h.writeError(w, http.StatusServiceUnavailable, "asynchronous jobs are disabled")
		return
	}
	doc, err := h.readDocument(w, r)
	if err != nil {
		log.Warn("document rejected", "error", err)
		h.writeAppError(w, err)
		return
	}
	resp, err := h.jobs.Submit(ctx, doc.filename, doc.format, doc.size, doc.text, middleware.GetRequestID(ctx))
	if err != nil {
		log.Error("job submission failed", "filename", doc.filename, "error", err)
		h.writeAppError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/extractions/"+resp.ID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":          hits,
		"misses":        misses,
		"total":         total,
		"hit_rate":      fmt.Sprintf("%.1f%%", hitRate),
		"breaker_state": h.cache.BreakerState().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) load(ctx context.Context, id string) (*store.Extraction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.Newf(apperrors.ErrExtractionNotFound, http.StatusNotFound, "no extraction with id %s", id)
	}
	return h.store.Get(ctx, id)
}

// rankParams reads "filter" and "top". A missing top means the configured
// default, top=0 means every keyword, and larger values are capped.
func (h *Handler) rankParams(r *http.Request) (string, int, error) {
	q := r.URL.Query()
	top := h.cfg.DefaultTopK
	if raw := q.Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return "", 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"top must be a non-negative integer")
		}
		top = parsed
	}
	if h.cfg.MaxTopK > 0 && top > h.cfg.MaxTopK {
		top = h.cfg.MaxTopK
	}
	return q.Get("filter"), top, nil
}

func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) (*upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.readMultipart(w, r)
	}
	return h.readJSON(w, r)
}

func (h *Handler) readMultipart(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, uploadError(err, "multipart field \"file\" is required")
	}
	defer file.Close()

	if err := document.Validate(header.Filename, header.Size, h.cfg.MaxUploadBytes); err != nil {
		return nil, err
	}
	format, err := document.FormatOf(header.Filename)
	if err != nil {
		return nil, err
	}
	_, span := tracing.StartChildSpan(r.Context(), "decode")
	text, err := document.Extract(header.Filename, file, header.Size, h.cfg.MaxUploadBytes)
	span.End()
	if err != nil {
		return nil, err
	}
	if h.metrics != nil {
		h.metrics.DocumentBytes.WithLabelValues(string(format)).Observe(float64(header.Size))
	}
	return &upload{filename: header.Filename, format: format, size: header.Size, text: text}, nil
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, uploadError(err, "invalid JSON body")
	}
	if req.Filename == "" {
		req.Filename = "input.txt"
	}
	size := int64(len(req.Text))
	if size > h.cfg.MaxUploadBytes {
		return nil, apperrors.Newf(apperrors.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge,
			"text must be at most %d bytes", h.cfg.MaxUploadBytes)
	}
	// pasted text always goes through the plain-text decoder
	text, err := document.ExtractBytes("input.txt", []byte(req.Text), h.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	if h.metrics != nil {
		h.metrics.DocumentBytes.WithLabelValues(string(document.FormatText)).Observe(float64(size))
	}
	return &upload{filename: req.Filename, format: document.FormatText, size: size, text: text}, nil
}

func uploadError(err error, message string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.Newf(apperrors.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge,
			"request body exceeds %d bytes", maxErr.Limit)
	}
	return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, message)
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps err onto a response. Validation errors list their
// fields; internal errors are not echoed to the client.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	var validationErr *document.ValidationError
	if errors.As(err, &validationErr) {
		status := http.StatusBadRequest
		if _, tooLarge := validationErr.Fields["size"]; tooLarge && len(validationErr.Fields) == 1 {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeJSON(w, status, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout && status != http.StatusServiceUnavailable {
		h.writeError(w, status, "internal error")
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, status, appErr.Message)
		return
	}
	h.writeError(w, status, err.Error())
}
