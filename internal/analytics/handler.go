package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	aggregator *Aggregator
	collector  *Collector
	logger     *slog.Logger
}

// NewHandler serves the aggregator's stats. Either argument may be nil when
// Kafka is disabled.
func NewHandler(aggregator *Aggregator, collector *Collector) *Handler {
	return &Handler{
		aggregator: aggregator,
		collector:  collector,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

type statsResponse struct {
	AggregatedStats
	DroppedEvents int64 `json:"dropped_events"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.aggregator == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "analytics is disabled"})
		return
	}
	resp := statsResponse{
		AggregatedStats: h.aggregator.Stats(),
		DroppedEvents:   h.collector.Dropped(),
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
