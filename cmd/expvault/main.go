package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/expvault/expvault/internal/analytics"
	"github.com/expvault/expvault/internal/feedback"
	"github.com/expvault/expvault/internal/index"
	"github.com/expvault/expvault/internal/ledger"
	"github.com/expvault/expvault/internal/mcp"
	"github.com/expvault/expvault/internal/search"
	"github.com/expvault/expvault/internal/store"
	"github.com/expvault/expvault/pkg/config"
	"github.com/expvault/expvault/pkg/health"
	"github.com/expvault/expvault/pkg/kafka"
	"github.com/expvault/expvault/pkg/logger"
	"github.com/expvault/expvault/pkg/metrics"
	pkgredis "github.com/expvault/expvault/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting expvault",
		"base_dir", cfg.Storage.BaseDir,
		"index_policy", cfg.Index.Policy,
	)

	if err := os.MkdirAll(cfg.Storage.BaseDir, 0o755); err != nil {
		slog.Error("failed to create base directory", "dir", cfg.Storage.BaseDir, "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	st := store.New(cfg.Storage.ExperiencePath())
	fb := feedback.NewLog(cfg.Storage.FeedbackPath())
	idx := index.NewManager(st, cfg.Storage.IndexPath(), cfg.Index.Policy, m)

	var queryCache *search.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = search.NewQueryCache(redisClient, cfg.Redis, m)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	engine := search.NewEngine(st, idx, queryCache, cfg.Search.DefaultLimit, cfg.Search.MaxResults, m)
	ldg := ledger.New(st, idx, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		slog.Info("analytics publishing enabled", "topic", cfg.Kafka.Topic)
	}
	collector := analytics.NewCollector(producer, 1024)
	collector.Start(ctx)
	defer collector.Close()

	if cfg.Metrics.Enabled {
		checker := health.NewChecker()
		checker.Register("store_dir", func(ctx context.Context) health.ComponentHealth {
			probe := filepath.Join(cfg.Storage.BaseDir, ".expvault-probe")
			if err := os.WriteFile(probe, nil, 0o644); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			os.Remove(probe)
			return health.ComponentHealth{Status: health.StatusUp}
		})
		checker.Register("index", func(ctx context.Context) health.ComponentHealth {
			stale, err := idx.Stale()
			if err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			if stale {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "rebuild pending"}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if redisClient == nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
			}
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, checker.LiveHandler(), checker.ReadyHandler())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	server := mcp.NewServer(mcp.Deps{
		Store:     st,
		Feedback:  fb,
		Index:     idx,
		Engine:    engine,
		Ledger:    ldg,
		Collector: collector,
		Metrics:   m,
	})
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("expvault stopped")
}
