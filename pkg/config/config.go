package config

import "time"

// Config is the full runtime configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Index      IndexConfig      `mapstructure:"index"`
	Directory  DirectoryConfig  `mapstructure:"directory"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type EmbeddingsConfig struct {
	// Providers lists provider names in fallback order: openai, gemini, hashing.
	Providers   []string      `mapstructure:"providers"`
	Dimensions  int           `mapstructure:"dimensions"`
	BatchSize   int           `mapstructure:"batch_size"`
	Concurrency int           `mapstructure:"concurrency"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type ExtractionConfig struct {
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	ExtraSkills         []string `mapstructure:"extra_skills"`
	AllowUnlistedSkills bool     `mapstructure:"allow_unlisted_skills"`
	AIEnabled           bool     `mapstructure:"ai_enabled"`
	ExcerptLimit        int      `mapstructure:"excerpt_limit"`
}

type RankingConfig struct {
	DefaultLimit  int           `mapstructure:"default_limit"`
	AIEnabled     bool          `mapstructure:"ai_enabled"`
	RerankTimeout time.Duration `mapstructure:"rerank_timeout"`
}

type IndexConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend"`
	Shards  int    `mapstructure:"shards"`
}

// DirectoryConfig selects where index hits are resolved to profiles.
type DirectoryConfig struct {
	// Backend is "file" (catalogs passed on the command line) or "postgres".
	Backend string `mapstructure:"backend"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	QueueName string `mapstructure:"queue_name"`
	CachePfx  string `mapstructure:"cache_prefix"`
}

type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend  string `mapstructure:"backend"`
	BasePath string `mapstructure:"base_path"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

type WorkerConfig struct {
	Count         int           `mapstructure:"count"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
	DelayedTicker time.Duration `mapstructure:"delayed_ticker"`
}

// ChatBudget is the longest a full chat fallback chain can take: the sum of
// the timeouts of every provider with a key.
func (c *Config) ChatBudget() time.Duration {
	var total time.Duration
	if c.OpenAI.APIKey != "" {
		total += c.OpenAI.Timeout
	}
	if c.Gemini.APIKey != "" {
		total += c.Gemini.Timeout
	}
	return total
}
