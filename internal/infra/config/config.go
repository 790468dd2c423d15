package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultFeeds are the Times of India top stories and India news feeds.
var DefaultFeeds = []string{
	"https://timesofindia.indiatimes.com/rssfeedstopstories.cms",
	"https://timesofindia.indiatimes.com/rssfeeds/4719148.cms",
}

type Config struct {
	Env      string
	Port     string
	LogLevel string

	Redis     RedisConfig
	DB        DBConfig
	Embedder  EmbedderConfig
	Generator GeneratorConfig
	RAG       RAGConfig
	Timeouts  TimeoutConfig
	Feed      FeedConfig
	Ingest    IngestConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

type RedisConfig struct {
	// URL selects the shared Redis store. Empty falls back to the in-process LRU store.
	URL             string
	PoolSize        int
	MemoryStoreSize int
}

type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

type EmbedderConfig struct {
	URL        string
	APIKey     string
	Model      string
	Dimensions int
}

type GeneratorConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

type RAGConfig struct {
	TopK int
}

// TimeoutConfig bounds each collaborator call on the chat path, in seconds.
type TimeoutConfig struct {
	Cache    int
	Embed    int
	Search   int
	Generate int
}

type FeedConfig struct {
	URLs            []string
	ItemLimit       int
	RefreshInterval time.Duration
	SnapshotPath    string
}

type IngestConfig struct {
	Concurrency int
	RatePerSec  float64
}

type HTTPConfig struct {
	// ChatRateLimit is requests per second per client IP on POST /chat. 0 disables throttling.
	ChatRateLimit float64
	ChatBurst     int
}

// TelemetryConfig controls OTLP export of traces, logs and metrics.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Redis: RedisConfig{
			URL:             getEnvWithAlt("REDIS_URL", "UPSTASH_REDIS_REST_URL", "redis://localhost:6379"),
			PoolSize:        getEnvInt("REDIS_POOL_SIZE", 20),
			MemoryStoreSize: getEnvInt("MEMORY_STORE_SIZE", 10000),
		},
		DB: DBConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "news_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "news_password"),
			Name:     getEnv("DB_NAME", "news_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			MinConns: getEnvInt("DB_MIN_CONNS", 2),
		},
		Embedder: EmbedderConfig{
			URL:        getEnv("JINA_URL", "https://api.jina.ai"),
			APIKey:     getSecret("JINA_API_KEY", "JINA_API_KEY_FILE", ""),
			Model:      getEnv("JINA_MODEL", "jina-embeddings-v3"),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),
		},
		Generator: GeneratorConfig{
			APIKey:    getSecret("GEMINI_API_KEY", "GEMINI_API_KEY_FILE", ""),
			Model:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			MaxTokens: getEnvInt("GEMINI_MAX_TOKENS", 0),
		},
		RAG: RAGConfig{
			TopK: getEnvInt("RAG_TOP_K", 5),
		},
		Timeouts: TimeoutConfig{
			Cache:    getEnvInt("CACHE_TIMEOUT", 2),
			Embed:    getEnvInt("EMBED_TIMEOUT", 15),
			Search:   getEnvInt("SEARCH_TIMEOUT", 10),
			Generate: getEnvInt("GENERATE_TIMEOUT", 60),
		},
		Feed: FeedConfig{
			URLs:            getEnvList("FEED_URLS", DefaultFeeds),
			ItemLimit:       getEnvInt("FEED_ITEM_LIMIT", 30),
			RefreshInterval: getEnvDuration("FEED_REFRESH_INTERVAL", 0),
			SnapshotPath:    getEnv("FEED_SNAPSHOT_PATH", "./data/articles.json"),
		},
		Ingest: IngestConfig{
			Concurrency: getEnvInt("INGEST_CONCURRENCY", 4),
			RatePerSec:  getEnvFloat64("INGEST_RATE_PER_SEC", 5),
		},
		HTTP: HTTPConfig{
			ChatRateLimit: getEnvFloat64("CHAT_RATE_LIMIT", 0),
			ChatBurst:     getEnvInt("CHAT_RATE_BURST", 5),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    strings.TrimRight(getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"), "/"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "news-chat"),
			SampleRatio: clampRatio(getEnvFloat64("OTEL_TRACE_SAMPLE_RATIO", 1)),
		},
	}
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL built from the DB_* parts.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// Seconds converts a timeout in seconds to a duration; non-positive values disable the bound.
func Seconds(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}

func clampRatio(r float64) float64 {
	return min(max(r, 0), 1)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
