package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/config"
	"github.com/kailas-cloud/ragline/internal/corpus"
	"github.com/kailas-cloud/ragline/internal/db"
	dbRedis "github.com/kailas-cloud/ragline/internal/db/redis"
	"github.com/kailas-cloud/ragline/internal/domain"
	logpkg "github.com/kailas-cloud/ragline/internal/logger"
	"github.com/kailas-cloud/ragline/internal/metrics"
	"github.com/kailas-cloud/ragline/internal/repository/embcache"
	"github.com/kailas-cloud/ragline/internal/store/chroma"
	"github.com/kailas-cloud/ragline/internal/transport/debug"
	"github.com/kailas-cloud/ragline/internal/transport/ollama"
	openaiProv "github.com/kailas-cloud/ragline/internal/transport/openai"
	"github.com/kailas-cloud/ragline/internal/usecase/pipeline"
	"github.com/kailas-cloud/ragline/internal/version"
)

const cacheReadinessTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragline",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("provider", cfg.Provider.Kind),
		zap.String("store", cfg.Store.BaseURL),
		zap.String("corpus", cfg.Corpus.Dir),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)

	// Optional Redis embedding cache
	var kv db.Store
	if len(cfg.Cache.Addrs) > 0 {
		kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()
		if err := kv.WaitForReady(ctx, cacheReadinessTimeout); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	baseEmbedder, generator := buildProvider(cfg.Provider, logger)
	embedder := baseEmbedder
	if kv != nil {
		embedder = embcache.New(baseEmbedder, kv, cfg.Cache.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	store := chroma.NewClient(&chroma.Config{
		BaseURL:    cfg.Store.BaseURL,
		Tenant:     cfg.Store.Tenant,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		Timeout:    time.Duration(cfg.Store.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	svc := pipeline.New(corpus.New(logger), embedder, generator, store, logger).
		WithTopK(cfg.Store.TopK)

	if cfg.Debug.Port > 0 {
		dbg := debug.NewServer(cfg.Debug.Port, newHealthFunc(baseEmbedder, kv), logger)
		dbg.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dbg.Shutdown(shutdownCtx)
		}()
	}

	count, err := svc.Ingest(ctx, cfg.Corpus.Dir)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}
	logger.Info("Corpus ingested", zap.Int("documents", count))

	fmt.Println("Enter your query:")
	query, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && query == "" {
		logger.Warn("No query provided")
		return
	}
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Warn("Empty query")
		return
	}

	answer, err := svc.AnswerQuery(ctx, query)
	if err != nil {
		logger.Fatal("Failed to answer query", zap.Error(err))
	}

	fmt.Println("\nAnswer:")
	fmt.Println(answer)
}

// newHealthFunc reports readiness of the provider and, when configured,
// the embedding cache store.
func newHealthFunc(embedder domain.Embedder, kv db.Store) debug.HealthFunc {
	return func(ctx context.Context) error {
		if hc, ok := embedder.(domain.HealthChecker); ok {
			if err := hc.HealthCheck(ctx); err != nil {
				return fmt.Errorf("provider health check: %w", err)
			}
		}
		if kv != nil {
			if err := kv.Ping(ctx); err != nil {
				return fmt.Errorf("cache health check: %w", err)
			}
		}
		return nil
	}
}

// buildProvider assembles the configured embedding/generation provider.
func buildProvider(cfg config.ProviderConfig, logger *zap.Logger) (domain.Embedder, domain.Generator) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	if cfg.Kind == "openai" {
		p := openaiProv.NewProvider(&openaiProv.Config{
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			EmbedModel:    cfg.EmbedModel,
			GenerateModel: cfg.GenerateModel,
			Timeout:       timeout,
			Logger:        logger,
		})
		return p, p
	}

	c := ollama.NewClient(&ollama.Config{
		BaseURL:       cfg.BaseURL,
		EmbedModel:    cfg.EmbedModel,
		GenerateModel: cfg.GenerateModel,
		Stream:        cfg.Stream,
		Timeout:       timeout,
		Logger:        logger,
	})
	return c, c
}
