package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HIREFLOW"

// Load reads config.yaml (when present), .env and HIREFLOW_* variables.
// An empty path searches ./configs and the working directory.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// bindDefaults registers every key so AutomaticEnv can populate keys that
// the yaml file does not mention.
func bindDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hireflow")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.metrics_addr", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.chat_model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("embeddings.providers", []string{"openai", "gemini", "hashing"})
	v.SetDefault("embeddings.dimensions", 1536)
	v.SetDefault("embeddings.batch_size", 64)
	v.SetDefault("embeddings.concurrency", 4)
	v.SetDefault("embeddings.cache_ttl", 24*time.Hour)
	v.SetDefault("extraction.confidence_threshold", 0.7)
	v.SetDefault("extraction.extra_skills", []string{})
	v.SetDefault("extraction.allow_unlisted_skills", true)
	v.SetDefault("extraction.ai_enabled", true)
	v.SetDefault("extraction.excerpt_limit", 4000)
	v.SetDefault("ranking.default_limit", 10)
	v.SetDefault("ranking.ai_enabled", true)
	v.SetDefault("ranking.rerank_timeout", 75*time.Second)
	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.shards", 16)
	v.SetDefault("directory.backend", "file")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue_name", "hireflow:sync")
	v.SetDefault("redis.cache_prefix", "hireflow:emb:")
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.base_path", ".")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.poll_timeout", 5*time.Second)
	v.SetDefault("worker.delayed_ticker", 30*time.Second)
}

// applyDefaults repairs zero values that an explicit empty yaml entry can produce.
func applyDefaults(cfg *Config) {
	if cfg.Embeddings.Dimensions <= 0 {
		cfg.Embeddings.Dimensions = 1536
	}
	if cfg.Embeddings.BatchSize <= 0 {
		cfg.Embeddings.BatchSize = 64
	}
	if cfg.Embeddings.Concurrency <= 0 {
		cfg.Embeddings.Concurrency = 4
	}
	if len(cfg.Embeddings.Providers) == 0 {
		cfg.Embeddings.Providers = []string{"openai", "gemini", "hashing"}
	}
	if cfg.Extraction.ConfidenceThreshold <= 0 {
		cfg.Extraction.ConfidenceThreshold = 0.7
	}
	if cfg.Extraction.ExcerptLimit <= 0 {
		cfg.Extraction.ExcerptLimit = 4000
	}
	if cfg.Ranking.DefaultLimit <= 0 {
		cfg.Ranking.DefaultLimit = 10
	}
	if cfg.Index.Shards <= 0 {
		cfg.Index.Shards = 16
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 4
	}
	if cfg.Worker.MaxAttempts <= 0 {
		cfg.Worker.MaxAttempts = 3
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Extraction.ConfidenceThreshold > 1 {
		return fmt.Errorf("extraction.confidence_threshold must be within (0,1], got %v", cfg.Extraction.ConfidenceThreshold)
	}

	if budget := cfg.ChatBudget(); cfg.Ranking.RerankTimeout > 0 && cfg.Ranking.RerankTimeout < budget {
		return fmt.Errorf("ranking.rerank_timeout (%s) must cover every chat provider timeout (%s)", cfg.Ranking.RerankTimeout, budget)
	}

	for _, p := range cfg.Embeddings.Providers {
		switch p {
		case "openai", "gemini", "hashing":
		default:
			return fmt.Errorf("embeddings.providers: unknown provider %q", p)
		}
	}

	switch cfg.Index.Backend {
	case "memory":
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when index.backend is postgres")
		}
	default:
		return fmt.Errorf("index.backend: unknown backend %q", cfg.Index.Backend)
	}

	switch cfg.Directory.Backend {
	case "file":
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when directory.backend is postgres")
		}
	default:
		return fmt.Errorf("directory.backend: unknown backend %q", cfg.Directory.Backend)
	}

	switch cfg.Storage.Backend {
	case "local":
	case "s3":
		if cfg.Storage.Bucket == "" {
			return errors.New("storage.bucket is required when storage.backend is s3")
		}
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", cfg.Storage.Backend)
	}
	return nil
}
