package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalExtractions     int64        `json:"total_extractions"`
	JobsCompleted        int64        `json:"jobs_completed"`
	JobsFailed           int64        `json:"jobs_failed"`
	CacheHits            int64        `json:"cache_hits"`
	CacheMisses          int64        `json:"cache_misses"`
	EmptyResultCount     int64        `json:"empty_result_count"`
	TotalBytes           int64        `json:"total_bytes"`
	AvgLatencyMs         float64      `json:"avg_latency_ms"`
	P50LatencyMs         int64        `json:"p50_latency_ms"`
	P95LatencyMs         int64        `json:"p95_latency_ms"`
	P99LatencyMs         int64        `json:"p99_latency_ms"`
	TopKeywords          []NamedCount `json:"top_keywords"`
	Formats              []NamedCount `json:"formats"`
	ExtractionsPerMinute float64      `json:"extractions_per_minute"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type Aggregator struct {
	mu            sync.RWMutex
	stats         AggregatedStats
	latencies     []int64
	nextLatency   int
	keywordCounts map[string]int64
	formatCounts  map[string]int64
	startTime     time.Time
	logger        *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:     make([]int64, 0, 1024),
		keywordCounts: make(map[string]int64),
		formatCounts:  make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a Kafka consumer. Undecodable
// messages are logged and skipped so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ExtractionEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Restore seeds the counters from a persisted snapshot. Latency percentiles
// and top lists start empty because the snapshot holds no raw samples.
func (a *Aggregator) Restore(snapshot AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.TotalExtractions = snapshot.TotalExtractions
	a.stats.JobsCompleted = snapshot.JobsCompleted
	a.stats.JobsFailed = snapshot.JobsFailed
	a.stats.CacheHits = snapshot.CacheHits
	a.stats.CacheMisses = snapshot.CacheMisses
	a.stats.EmptyResultCount = snapshot.EmptyResultCount
	a.stats.TotalBytes = snapshot.TotalBytes
	for _, kc := range snapshot.TopKeywords {
		a.keywordCounts[kc.Name] += kc.Count
	}
	for _, fc := range snapshot.Formats {
		a.formatCounts[fc.Name] += fc.Count
	}
}

func (a *Aggregator) Record(event ExtractionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch event.Type {
	case EventJobFailed:
		a.stats.JobsFailed++
		return
	case EventJobCompleted:
		a.stats.JobsCompleted++
	}

	a.stats.TotalExtractions++
	a.stats.TotalBytes += event.SizeBytes
	if event.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	if event.KeywordCount == 0 {
		a.stats.EmptyResultCount++
	}
	if event.Format != "" {
		a.formatCounts[event.Format]++
	}
	for _, kw := range event.TopKeywords {
		a.keywordCounts[kw]++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.nextLatency] = event.LatencyMs
		a.nextLatency = (a.nextLatency + 1) % maxLatencySamples
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopKeywords = topN(a.keywordCounts, 10)
	stats.Formats = topN(a.formatCounts, len(a.formatCounts))
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.ExtractionsPerMinute = float64(stats.TotalExtractions) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then name, so equal counts list deterministically.
func topN(counts map[string]int64, n int) []NamedCount {
	result := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, NamedCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
