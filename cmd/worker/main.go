package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/cache"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/store"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/extraction/worker"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
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
	slog.Info("starting extraction worker", "topic", cfg.Kafka.Topics.ExtractRequest)

	if !cfg.Kafka.Enabled || !cfg.Postgres.Enabled {
		slog.Error("the extraction worker needs kafka and postgres enabled")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	var onBreakerChange func(name string, from, to resilience.State)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		onBreakerChange = m.ObserveBreaker
		metricsServer := metrics.NewServer("worker", cfg.Metrics.Port, nil)
		metricsServer.Start()
		defer metricsServer.Shutdown(context.Background())
	}

	pipelineCfg, err := pipeline.NewConfig(cfg.Extraction)
	if err != nil {
		slog.Error("failed to load keyword pipeline", "error", err)
		os.Exit(1)
	}

	pg, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.Migrate(ctx, store.Schema); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	var resultCache *cache.ResultCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			resultCache = cache.New(redisClient, cfg.Redis, cache.Fingerprint(cfg.Extraction), onBreakerChange)
		}
	}

	completions := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ExtractComplete)
	defer completions.Close()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer analyticsProducer.Close()
	collector := analytics.NewCollector(analyticsProducer,
		cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
	collector.Start(ctx)
	defer collector.Close()

	handle := worker.HandleMessage(&worker.Worker{
		Service:     extraction.NewService(pipeline.New(pipelineCfg), resultCache, cfg.Extraction.Timeout, m),
		Store:       store.NewPostgres(pg),
		Completions: completions,
		Collector:   collector,
		Metrics:     m,
	})
	jobConsumer := kafka.NewJobConsumer(cfg.Kafka, cfg.Kafka.Topics.ExtractRequest, handle)

	slog.Info("extraction worker ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.ExtractRequest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := jobConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("extraction worker stopped")
}
