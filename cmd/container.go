package main

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/hireflow/internal/ai/embeddings"
	"github.com/Abraxas-365/hireflow/internal/ai/llm"
	"github.com/Abraxas-365/hireflow/internal/ai/reranker"
	"github.com/Abraxas-365/hireflow/internal/ai/resumeparser"
	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fsx"
	"github.com/Abraxas-365/hireflow/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/hireflow/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
	"github.com/Abraxas-365/hireflow/recruitment/matching/extractor"
	"github.com/Abraxas-365/hireflow/recruitment/matching/matchinginfra"
	"github.com/Abraxas-365/hireflow/recruitment/matching/matchingsrv"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client

	// AI
	LLM        *llm.Chain
	Embeddings *embeddings.Service

	// Matching
	Index     matching.VectorIndex
	Queue     *matchinginfra.RedisSyncQueue
	Directory *matchinginfra.FileDirectory
	Service   *matchingsrv.Service
}

// NewContainer initializes the dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg, Directory: matchinginfra.NewFileDirectory(nil)}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initAI(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initServices(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	// 1. Database Connection
	if cfg.Index.Backend == "postgres" || cfg.Directory.Backend == "postgres" {
		db, err := sqlx.Connect("postgres", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		c.DB = db
	}

	// 2. Redis Connection
	if cfg.Redis.Addr != "" {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			logx.Warnf("Failed to connect to Redis: %v", err)
		}
	}

	// 3. File storage
	switch cfg.Storage.Backend {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		c.S3Client = s3.NewFromConfig(awsCfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, cfg.Storage.Bucket, cfg.Storage.Prefix)
	default:
		c.FileSystem = fsxlocal.NewLocalFileSystem(cfg.Storage.BasePath)
	}
	return nil
}

func (c *Container) initAI(ctx context.Context) error {
	cfg := c.Config

	// Chat models in fallback order, each with its own timeout. Missing keys
	// just shorten the chain.
	var clients []llm.Client
	if cfg.OpenAI.APIKey != "" {
		client, err := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
		if err != nil {
			return fmt.Errorf("create openai client: %w", err)
		}
		clients = append(clients, llm.WithTimeout(client, cfg.OpenAI.Timeout))
	}
	if cfg.Gemini.APIKey != "" {
		client, err := llm.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel)
		if err != nil {
			return fmt.Errorf("create gemini client: %w", err)
		}
		clients = append(clients, llm.WithTimeout(client, cfg.Gemini.Timeout))
	}
	if len(clients) > 0 {
		c.LLM = llm.NewChain(0, clients...)
	} else {
		logx.Warn("No LLM API key configured, AI annotation and re-ranking are disabled")
	}

	providers, err := c.embeddingProviders(ctx)
	if err != nil {
		return err
	}

	var cache embeddings.Cache
	if c.Redis != nil {
		cache = matchinginfra.NewRedisEmbeddingCache(c.Redis, cfg.Redis.CachePfx, cfg.Embeddings.CacheTTL)
	}
	c.Embeddings = embeddings.NewService(providers, embeddings.Config{
		BatchSize:   cfg.Embeddings.BatchSize,
		Concurrency: cfg.Embeddings.Concurrency,
	}, cache)
	return nil
}

// embeddingProviders builds providers in configured order, skipping the ones
// without credentials. The hashing provider is always available.
func (c *Container) embeddingProviders(ctx context.Context) ([]embeddings.Provider, error) {
	cfg := c.Config
	dims := cfg.Embeddings.Dimensions

	var providers []embeddings.Provider
	for _, name := range cfg.Embeddings.Providers {
		switch name {
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				continue
			}
			p, err := embeddings.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, dims)
			if err != nil {
				return nil, fmt.Errorf("create openai embeddings: %w", err)
			}
			providers = append(providers, embeddings.WithTimeout(p, cfg.OpenAI.Timeout))
		case "gemini":
			if cfg.Gemini.APIKey == "" {
				continue
			}
			p, err := embeddings.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, dims)
			if err != nil {
				return nil, fmt.Errorf("create gemini embeddings: %w", err)
			}
			providers = append(providers, embeddings.WithTimeout(p, cfg.Gemini.Timeout))
		case "hashing":
			providers = append(providers, embeddings.NewHashingProvider(dims))
		}
	}
	if len(providers) == 0 {
		logx.Warn("No embedding provider available, falling back to hashing")
		providers = append(providers, embeddings.NewHashingProvider(dims))
	}
	return providers, nil
}

func (c *Container) initServices(ctx context.Context) error {
	cfg := c.Config

	switch cfg.Index.Backend {
	case "postgres":
		idx := matchinginfra.NewPostgresIndex(c.DB)
		if err := idx.EnsureSchema(ctx); err != nil {
			return err
		}
		c.Index = idx
	default:
		c.Index = matchinginfra.NewMemoryIndex(cfg.Index.Shards)
	}

	ext, err := extractor.New(cfg.Extraction.ExtraSkills)
	if err != nil {
		return fmt.Errorf("build skill extractor: %w", err)
	}

	var opts []matchingsrv.Option
	switch cfg.Directory.Backend {
	case "postgres":
		dir := matchinginfra.NewPostgresDirectory(c.DB)
		if err := dir.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, matchingsrv.WithCandidateDirectory(dir), matchingsrv.WithJobDirectory(dir))
	default:
		opts = append(opts, matchingsrv.WithCandidateDirectory(c.Directory), matchingsrv.WithJobDirectory(c.Directory))
	}
	if c.LLM != nil {
		if cfg.Extraction.AIEnabled {
			opts = append(opts, matchingsrv.WithAnnotator(resumeparser.NewResumeParser(c.LLM, cfg.Extraction.ExcerptLimit)))
		}
		opts = append(opts, matchingsrv.WithReranker(reranker.New(c.LLM)))
	}
	if c.Redis != nil {
		c.Queue = matchinginfra.NewRedisSyncQueue(c.Redis, cfg.Redis.QueueName)
		opts = append(opts, matchingsrv.WithSyncQueue(c.Queue))
	}

	c.Service = matchingsrv.NewService(ext, c.Embeddings, c.Index, matchingsrv.Config{
		ConfidenceThreshold: cfg.Extraction.ConfidenceThreshold,
		AllowUnlistedSkills: cfg.Extraction.AllowUnlistedSkills,
		DefaultLimit:        cfg.Ranking.DefaultLimit,
		RerankJobs:          cfg.Ranking.AIEnabled,
		RerankTimeout:       cfg.Ranking.RerankTimeout,
		MaxSyncAttempts:     cfg.Worker.MaxAttempts,
	}, opts...)
	return nil
}

// LoadProfiles reads a catalog through the configured file system. With the
// file directory its profiles also become resolvable by index rankings.
func (c *Container) LoadProfiles(ctx context.Context, path string) (*matchinginfra.Catalog, error) {
	catalog, err := matchinginfra.LoadCatalog(ctx, c.FileSystem, path)
	if err != nil {
		return nil, err
	}
	c.Directory.Add(*catalog)
	return catalog, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Warnf("Failed to close Redis: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Warnf("Failed to close database: %v", err)
		}
	}
}
