package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Qdrant        QdrantConfig        `mapstructure:"qdrant"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
	Ollama        OllamaConfig        `mapstructure:"ollama"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Models        ModelsConfig        `mapstructure:"models"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Log           LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
}

type QdrantConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
	RPM        int    `mapstructure:"rpm"`
}

type OllamaConfig struct {
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	RPM     int    `mapstructure:"rpm"`
}

// RedisConfig configures the embedding cache. An empty Address disables it.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	EmbeddingTTL time.Duration `mapstructure:"embedding_ttl"`
}

// ModelsConfig selects the backend of each pluggable collaborator.
type ModelsConfig struct {
	Embedder    string `mapstructure:"embedder"`
	Generator   string `mapstructure:"generator"`
	VectorStore string `mapstructure:"vector_store"`
}

type KnowledgeBaseConfig struct {
	Path         string `mapstructure:"path"`
	IndexPath    string `mapstructure:"index_path"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	TopK         int    `mapstructure:"top_k"`
}

type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	QueueSize         int           `mapstructure:"queue_size"`
	RetryMaxAttempts  int           `mapstructure:"retry_max_attempts"`
	RetryInitialDelay time.Duration `mapstructure:"retry_initial_delay"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Backends accepted in ModelsConfig.
const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
	BackendLocal  = "local"
	BackendQdrant = "qdrant"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":                  "PORT",
	"server.env":                   "ENV",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.name":                "DB_NAME",
	"qdrant.url":                   "QDRANT_URL",
	"qdrant.api_key":               "QDRANT_API_KEY",
	"qdrant.collection":            "QDRANT_COLLECTION",
	"gemini.api_key":               "GEMINI_API_KEY",
	"gemini.model":                 "GEMINI_MODEL",
	"gemini.embed_model":           "GEMINI_EMBED_MODEL",
	"gemini.rpm":                   "GEMINI_RPM",
	"ollama.url":                   "OLLAMA_URL",
	"ollama.model":                 "OLLAMA_EMBED_MODEL",
	"ollama.timeout":               "OLLAMA_TIMEOUT",
	"openai.base_url":              "OPENAI_BASE_URL",
	"openai.api_key":               "OPENAI_API_KEY",
	"openai.model":                 "OPENAI_MODEL",
	"openai.rpm":                   "OPENAI_RPM",
	"redis.address":                "REDIS_ADDR",
	"redis.password":               "REDIS_PASSWORD",
	"redis.db":                     "REDIS_DB",
	"redis.embedding_ttl":          "EMBEDDING_CACHE_TTL",
	"models.embedder":              "EMBEDDER",
	"models.generator":             "GENERATOR",
	"models.vector_store":          "VECTOR_STORE",
	"knowledge_base.path":          "KNOWLEDGE_BASE_PATH",
	"knowledge_base.index_path":    "VECTOR_STORE_PATH",
	"knowledge_base.chunk_size":    "CHUNK_SIZE",
	"knowledge_base.chunk_overlap": "CHUNK_OVERLAP",
	"knowledge_base.top_k":         "RETRIEVAL_TOP_K",
	"worker.concurrency":           "WORKER_CONCURRENCY",
	"worker.queue_size":            "WORKER_QUEUE_SIZE",
	"worker.retry_max_attempts":    "RETRY_MAX_ATTEMPTS",
	"worker.retry_initial_delay":   "RETRY_INITIAL_DELAY",
	"worker.job_timeout":           "JOB_TIMEOUT",
	"worker.poll_interval":         "POLL_INTERVAL",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "interview_analyzer")

	v.SetDefault("qdrant.url", "http://localhost:6334")
	v.SetDefault("qdrant.collection", "interview_advice")

	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embed_model", "text-embedding-004")
	v.SetDefault("gemini.rpm", 15)

	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "all-minilm")
	v.SetDefault("ollama.timeout", "30s")

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.rpm", 60)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.embedding_ttl", "24h")

	v.SetDefault("models.embedder", BackendOllama)
	v.SetDefault("models.generator", BackendGemini)
	v.SetDefault("models.vector_store", BackendLocal)

	v.SetDefault("knowledge_base.path", "./knowledge_base")
	v.SetDefault("knowledge_base.index_path", "./vector_store")
	v.SetDefault("knowledge_base.chunk_size", 1000)
	v.SetDefault("knowledge_base.chunk_overlap", 100)
	v.SetDefault("knowledge_base.top_k", 1)

	v.SetDefault("worker.concurrency", 3)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("worker.retry_max_attempts", 3)
	v.SetDefault("worker.retry_initial_delay", "2s")
	v.SetDefault("worker.job_timeout", "5m")
	v.SetDefault("worker.poll_interval", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads .env, an optional config.yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the backend selections. Credentials are checked by the
// clients that need them.
func (c *Config) Validate() error {
	c.Models.Embedder = strings.ToLower(c.Models.Embedder)
	c.Models.Generator = strings.ToLower(c.Models.Generator)
	c.Models.VectorStore = strings.ToLower(c.Models.VectorStore)

	switch c.Models.Embedder {
	case BackendOllama, BackendGemini:
	default:
		return fmt.Errorf("unknown embedder %q", c.Models.Embedder)
	}
	switch c.Models.Generator {
	case BackendGemini, BackendOpenAI:
	default:
		return fmt.Errorf("unknown generator %q", c.Models.Generator)
	}
	switch c.Models.VectorStore {
	case BackendLocal, BackendQdrant:
	default:
		return fmt.Errorf("unknown vector store %q", c.Models.VectorStore)
	}

	if c.KnowledgeBase.ChunkOverlap >= c.KnowledgeBase.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d",
			c.KnowledgeBase.ChunkOverlap, c.KnowledgeBase.ChunkSize)
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}
