package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-clustering/internal/bootstrap"
	"github.com/yanqian/faq-clustering/internal/domain/clustering"
	"github.com/yanqian/faq-clustering/internal/domain/faq"
	"github.com/yanqian/faq-clustering/internal/domain/search"
	"github.com/yanqian/faq-clustering/internal/infra/config"
	"github.com/yanqian/faq-clustering/internal/infra/corpus"
	"github.com/yanqian/faq-clustering/internal/infra/embedder"
	"github.com/yanqian/faq-clustering/internal/infra/faqrepo"
	"github.com/yanqian/faq-clustering/internal/infra/faqstore"
	"github.com/yanqian/faq-clustering/internal/infra/metrics"
	"github.com/yanqian/faq-clustering/internal/infra/vectorindex"
)

func provideFAQConfig(cfg *config.Config) faq.Config {
	r := cfg.Recommendation
	return faq.Config{
		MinDBThreshold:     r.MinDBThreshold,
		FallbackTargetSize: r.FallbackTargetSize,
		FetchLimit:         r.FetchLimit,
		CacheTTL:           r.CacheTTL,
		CallTimeout:        r.CallTimeout,
		Clustering: clustering.Config{
			MaxK:     r.MaxK,
			Restarts: r.KMeansRestarts,
			Seed:     r.Seed,
		},
	}
}

func provideSearchConfig(cfg *config.Config) search.Config {
	s := cfg.Search
	return search.Config{
		Threshold:    s.Threshold,
		TopK:         s.TopK,
		MinResults:   s.MinResults,
		TargetCount:  s.TargetCount,
		MaxThreshold: s.MaxThreshold,
		MinThreshold: s.MinThreshold,
		Step:         s.Step,
		SampleSize:   s.SampleSize,
		CallTimeout:  cfg.Recommendation.CallTimeout,
		Confidence: search.Thresholds{
			High:   s.Confidence.High,
			Medium: s.Confidence.Medium,
			Low:    s.Confidence.Low,
		},
	}
}

func provideFallbackCorpus(cfg *config.Config) (faq.FallbackCorpus, error) {
	if path := strings.TrimSpace(cfg.Recommendation.CorpusPath); path != "" {
		return corpus.Load(path)
	}
	return corpus.Default()
}

func provideMetricsSink(cfg *config.Config) *metrics.PrometheusSink {
	return metrics.NewPrometheusSink(cfg.Metrics.Namespace)
}

// providePostgresPool returns nil when no DSN is configured or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Storage.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, postgres adapters disabled")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, postgres adapters disabled", "error", err)
		return nil
	}
	if cfg.Storage.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Storage.Postgres.MaxConns
	}
	if cfg.Storage.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Storage.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, postgres adapters disabled", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, postgres adapters disabled", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres pool ready")
	return pool
}

func provideFAQRepository(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) faq.QuestionRepository {
	if pool != nil {
		logger.Info("faq postgres repository enabled")
		return faqrepo.NewPostgresRepository(pool)
	}
	if path := strings.TrimSpace(cfg.Storage.SQLite.Path); path != "" {
		repo, err := faqrepo.NewSQLiteRepository(path)
		if err == nil {
			logger.Info("faq sqlite repository enabled", "path", path)
			return repo
		}
		logger.Error("failed to open sqlite repository, using memory repository", "path", path, "error", err)
	}
	logger.Info("using memory faq repository")
	return faqrepo.NewMemoryRepository()
}

func provideQuestionStore(repo faq.QuestionRepository) faq.QuestionStore {
	return repo
}

func provideVectorIndex(pool *pgxpool.Pool, logger *slog.Logger) search.VectorIndex {
	if pool != nil {
		logger.Info("pgvector index enabled")
		return vectorindex.NewPgVectorIndex(pool)
	}
	logger.Info("using memory vector index")
	return vectorindex.NewMemoryIndex()
}

func provideEmbedder(cfg *config.Config, sink *metrics.PrometheusSink, logger *slog.Logger) (faq.Embedder, error) {
	var inner faq.Embedder
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		inner = embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
			APIKey:     cfg.LLM.APIKey,
			BaseURL:    cfg.LLM.BaseURL,
			Model:      cfg.LLM.EmbeddingModel,
			Dimensions: cfg.LLM.EmbeddingDimensions,
		}, logger)
		logger.Info("openai embedder enabled", "model", cfg.LLM.EmbeddingModel)
	} else {
		inner = embedder.NewDeterministicEmbedder(cfg.LLM.EmbeddingDimensions)
		logger.Warn("llm api key not set, using deterministic embedder")
	}
	if cfg.LLM.EmbeddingCacheSize <= 0 {
		return inner, nil
	}
	return embedder.NewCachedEmbedder(inner, cfg.LLM.EmbeddingCacheSize, sink.EmbeddingCache, logger)
}

func provideResultCache(cfg *config.Config, logger *slog.Logger) (faq.ResultCache, error) {
	if cfg.Storage.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return faqstore.NewMemoryStore(cfg.Recommendation.CacheMaxEntries)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return faqstore.NewMemoryStore(cfg.Recommendation.CacheMaxEntries)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("faq valkey store enabled", "addr", cfg.Storage.Valkey.Addr)
			return faqstore.NewValkeyStore(client, cfg.Storage.Valkey.Prefix), nil
		}
	}
	return faqstore.NewMemoryStore(cfg.Recommendation.CacheMaxEntries)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Storage.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Storage.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Storage.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

// provideCleanup closes whichever backends were opened.
func provideCleanup(pool *pgxpool.Pool, repo faq.QuestionRepository, cache faq.ResultCache, logger *slog.Logger) bootstrap.Cleanup {
	return func() {
		if closer, ok := repo.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("close faq repository", "error", err)
			}
		}
		if closer, ok := cache.(interface{ Close() }); ok {
			closer.Close()
		}
		if pool != nil {
			pool.Close()
		}
	}
}
