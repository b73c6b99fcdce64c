package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/config"
	dbPostgres "github.com/kailas-cloud/footrag/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/footrag/internal/db/redis"
	"github.com/kailas-cloud/footrag/internal/domain"
	logpkg "github.com/kailas-cloud/footrag/internal/logger"
	"github.com/kailas-cloud/footrag/internal/metrics"
	"github.com/kailas-cloud/footrag/internal/repository/embcache"
	entityrepo "github.com/kailas-cloud/footrag/internal/repository/entity"
	"github.com/kailas-cloud/footrag/internal/repository/pgentity"
	chiTransport "github.com/kailas-cloud/footrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/footrag/internal/transport/openai"
	"github.com/kailas-cloud/footrag/internal/usecase/classify"
	"github.com/kailas-cloud/footrag/internal/usecase/decompose"
	"github.com/kailas-cloud/footrag/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/footrag/internal/usecase/health"
	"github.com/kailas-cloud/footrag/internal/usecase/pipeline"
	"github.com/kailas-cloud/footrag/internal/usecase/resilient"
	"github.com/kailas-cloud/footrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/footrag/internal/usecase/route"
	"github.com/kailas-cloud/footrag/internal/version"
)

// datastore bundles the retrieval repository with the pool behind it.
type datastore struct {
	repo  retrieval.Datastore
	ping  healthuc.DBPinger
	kv    *dbRedis.Store // nil for postgres
	close func()
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Version: version.Version,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting "+version.String(),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("chat_model", cfg.LLM.ChatModel),
		zap.String("embedding_model", cfg.LLM.EmbeddingModel),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()
	ds := openDatastore(ctx, &cfg, logger)
	defer ds.close()

	policy := resilient.Policy{
		Attempts:     cfg.Retry.Attempts,
		InitialDelay: time.Duration(cfg.Retry.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
	}

	providerCfg := openaiTransport.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLMTimeout(),
		Logger:  logger,
	}

	chatCfg := openaiTransport.ChatConfig{
		Config:      providerCfg,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	chatCfg.Model = cfg.LLM.ChatModel
	chat := resilient.NewChatModel(openaiTransport.NewChat(&chatCfg), policy, logger)

	embCfg := providerCfg
	embCfg.Model = cfg.LLM.EmbeddingModel
	embCfg.Dimensions = cfg.LLM.Dimensions
	baseEmbedder := resilient.NewEmbedder(openaiTransport.NewEmbedder(&embCfg), policy, logger)
	embedder := buildEmbedder(baseEmbedder, ds.kv, &cfg, logger)

	logger.Info("LLM clients created",
		zap.String("base_url", cfg.LLM.BaseURL),
		zap.Uint("retry_attempts", policy.Attempts),
		zap.Bool("embedding_cache", cfg.EmbeddingCache.Enabled),
	)

	decomposer := decompose.New(chat, logger)
	store := resilient.NewDatastore(ds.repo, policy, logger)
	retriever := retrieval.New(store, embedder, decomposer, logger).
		WithParallel(*cfg.Retrieval.Parallel)

	svc := pipeline.New(
		classify.New(chat, logger),
		route.New(chat, logger),
		embedder,
		retriever,
		generate.New(chat, logger),
	).WithLimits(cfg.Retrieval.DefaultLimit, cfg.Retrieval.MaxLimit)

	healthSvc := healthuc.New(ds.ping, chat, baseEmbedder)

	server := chiTransport.NewServer(svc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openDatastore connects the configured driver and waits until it answers.
func openDatastore(ctx context.Context, cfg *config.Config, logger *zap.Logger) datastore {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		if cfg.Retrieval.BootstrapIndexes {
			created, err := entityrepo.EnsureIndexes(ctx, store, cfg.Storage.KeyPrefix, cfg.LLM.Dimensions,
				entityrepo.HNSWConfig{M: cfg.Retrieval.HNSWM, EFConstruct: cfg.Retrieval.HNSWEFConstruction})
			if err != nil {
				logger.Fatal("Failed to bootstrap indexes", zap.Error(err))
			}
			logger.Info("Indexes ready", zap.Strings("created", created))
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		return datastore{
			repo:  entityrepo.New(store, cfg.Storage.KeyPrefix),
			ping:  store,
			kv:    store,
			close: store.Close,
		}

	case config.DriverPostgres:
		client, err := dbPostgres.Open(dbPostgres.Config{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			logger.Fatal("Failed to open database", zap.Error(err))
		}
		if err := client.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
		return datastore{
			repo:  pgentity.New(client.DB()),
			ping:  client,
			close: client.Close,
		}
	}

	logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	return datastore{}
}

// buildEmbedder assembles the query embedder chain: OpenAI -> Resilient -> Cached -> Instruction
func buildEmbedder(
	base domain.Embedder, kv *dbRedis.Store, cfg *config.Config, logger *zap.Logger,
) domain.Embedder {
	embedder := base

	if cfg.EmbeddingCache.Enabled && kv != nil {
		embedder = embcache.New(base, kv, cfg.LLM.EmbeddingModel, metrics.EmbeddingCacheTotal, logger).
			WithPrefix(cfg.Storage.KeyPrefix).
			WithDimensions(cfg.LLM.Dimensions).
			WithTTL(time.Duration(cfg.EmbeddingCache.TTLSec) * time.Second)
	}

	// Instruction prefix (outermost, cache key includes instruction)
	if cfg.LLM.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.LLM.QueryInstruction)
	}
	return embedder
}
