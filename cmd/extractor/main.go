package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/cache"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/handler"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logOutput := logger.SetupFromConfig(cfg.Logging)
	defer logOutput.Close()
	slog.Info("starting extraction service", "port", cfg.Server.Port, "language", cfg.Extraction.Language)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	var onBreakerChange func(name string, from, to resilience.State)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		onBreakerChange = m.ObserveBreaker
		metricsServer := metrics.NewServer("extractor", cfg.Metrics.Port, nil)
		metricsServer.Start()
		defer metricsServer.Shutdown(context.Background())
	}

	pipelineCfg, err := pipeline.NewConfig(cfg.Extraction)
	if err != nil {
		slog.Error("failed to load keyword pipeline", "error", err)
		os.Exit(1)
	}
	extractor := pipeline.New(pipelineCfg)
	slog.Info("keyword pipeline ready", "stopwords", pipelineCfg.Stopwords.Len())

	var resultCache *cache.ResultCache
	var redisPinger health.Pinger
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			redisPinger = redisClient
			resultCache = cache.New(redisClient, cfg.Redis, cache.Fingerprint(cfg.Extraction), onBreakerChange)
			slog.Info("result cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	var pg *postgres.Client
	var postgresPinger health.Pinger
	var extractions store.Store = store.NewMemory(store.DefaultMemoryEntries)
	if cfg.Postgres.Enabled {
		pg, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, keeping extractions in memory", "error", err)
		} else {
			defer pg.Close()
			if err := pg.Migrate(ctx, store.Schema, aggregator.Schema); err != nil {
				slog.Error("failed to migrate schema", "error", err)
				os.Exit(1)
			}
			postgresPinger = pg
			extractions = store.NewPostgres(pg)
			slog.Info("extraction store ready", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		}
	}

	var (
		collector   *analytics.Collector
		agg         *analytics.Aggregator
		submitter   *jobs.Submitter
		kafkaPinger health.Pinger
	)
	if cfg.Kafka.Enabled {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer analyticsProducer.Close()
		kafkaPinger = analyticsProducer

		collector = analytics.NewCollector(analyticsProducer,
			cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		collector.Start(ctx)
		defer collector.Close()

		agg = analytics.NewAggregator()
		if pg != nil {
			restoreAnalytics(ctx, aggregator.NewStore(pg), agg, cfg.Analytics)
		}
		analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
		go func() {
			if err := analyticsConsumer.Start(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		}()
		slog.Info("analytics enabled", "topic", cfg.Kafka.Topics.AnalyticsEvents)

		if pg != nil {
			requestProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ExtractRequest)
			defer requestProducer.Close()
			submitter = jobs.NewSubmitter(extractions, requestProducer, cfg.Kafka.MaxMessageBytes)
			slog.Info("asynchronous jobs enabled", "topic", cfg.Kafka.Topics.ExtractRequest)
		} else {
			slog.Warn("asynchronous jobs disabled: the worker needs the postgres store")
		}
	}

	checker := health.NewChecker()
	checker.Register("keyword_pipeline", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d stopwords loaded", pipelineCfg.Stopwords.Len()),
		}
	})
	checker.Register("redis", health.PingCheck(redisPinger, false))
	checker.Register("postgres", health.PingCheck(postgresPinger, false))
	checker.Register("kafka", health.PingCheck(kafkaPinger, false))

	h := handler.New(handler.Deps{
		Service:   extraction.NewService(extractor, resultCache, cfg.Extraction.Timeout, m),
		Store:     extractions,
		Cache:     resultCache,
		Jobs:      submitter,
		Collector: collector,
		Metrics:   m,
		Tracer:    tracing.NewTracer(cfg.Tracing),
	}, cfg.Extraction)
	analyticsH := analytics.NewHandler(agg, collector)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst)
		limiter.StartCleanup(ctx, 5*time.Minute)
		chain = middleware.RateLimit(limiter)(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("extraction service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// in-flight requests drain before the deferred collector and store closes run
	<-shutdownDone

	slog.Info("extraction service stopped")
}

// restoreAnalytics seeds agg from the newest snapshot, prunes old ones and
// starts periodic snapshotting.
func restoreAnalytics(ctx context.Context, snapshots *aggregator.Store, agg *analytics.Aggregator, cfg config.AnalyticsConfig) {
	latest, err := snapshots.LatestSnapshot(ctx)
	switch {
	case err != nil:
		slog.Warn("could not load analytics snapshot", "error", err)
	case latest != nil:
		agg.Restore(*latest)
		slog.Info("analytics restored from snapshot", "total_extractions", latest.TotalExtractions)
	}
	if cfg.SnapshotRetention > 0 {
		if pruned, err := snapshots.Prune(ctx, cfg.SnapshotRetention); err != nil {
			slog.Warn("analytics snapshot pruning failed", "error", err)
		} else if pruned > 0 {
			slog.Info("old analytics snapshots pruned", "deleted", pruned)
		}
	}
	if cfg.SnapshotInterval > 0 {
		snapshots.StartPeriodicSave(ctx, agg, cfg.SnapshotInterval)
	}
}
