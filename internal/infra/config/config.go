package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	LLM            LLMConfig            `yaml:"llm"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Search         SearchConfig         `yaml:"search"`
	Storage        StorageConfig        `yaml:"storage"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for POST requests that fail with 5xx.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains OpenAI-compatible embedding settings. An empty APIKey
// selects the offline deterministic embedder.
type LLMConfig struct {
	APIKey              string `yaml:"apiKey"`
	BaseURL             string `yaml:"baseUrl"`
	EmbeddingModel      string `yaml:"embeddingModel"`
	EmbeddingDimensions int    `yaml:"embeddingDimensions"`
	EmbeddingCacheSize  int    `yaml:"embeddingCacheSize"`
}

// RecommendationConfig tunes corpus selection, clustering and caching.
type RecommendationConfig struct {
	MinDBThreshold     int           `yaml:"minDbThreshold"`
	FallbackTargetSize int           `yaml:"fallbackTargetSize"`
	FetchLimit         int           `yaml:"fetchLimit"`
	MaxK               int           `yaml:"maxK"`
	KMeansRestarts     int           `yaml:"kmeansRestarts"`
	Seed               int64         `yaml:"seed"`
	CacheTTL           time.Duration `yaml:"cacheTtl"`
	CacheMaxEntries    int           `yaml:"cacheMaxEntries"`
	CallTimeout        time.Duration `yaml:"callTimeout"`
	CorpusPath         string        `yaml:"corpusPath"`
}

// SearchConfig holds similarity search defaults.
type SearchConfig struct {
	Threshold    float64          `yaml:"threshold"`
	TopK         int              `yaml:"topK"`
	MinResults   int              `yaml:"minResults"`
	TargetCount  int              `yaml:"targetCount"`
	MaxThreshold float64          `yaml:"maxThreshold"`
	MinThreshold float64          `yaml:"minThreshold"`
	Step         float64          `yaml:"step"`
	SampleSize   int              `yaml:"sampleSize"`
	Confidence   ConfidenceConfig `yaml:"confidence"`
}

// ConfidenceConfig are the static bucket thresholds for plain searches.
type ConfidenceConfig struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// StorageConfig selects the persistence backends.
type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SQLiteConfig points at a local database file used when Postgres is unset.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ValkeyConfig contains connection information for the result cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	setInt(&cfg.LLM.EmbeddingDimensions, "LLM_EMBEDDING_DIMENSIONS")
	setInt(&cfg.LLM.EmbeddingCacheSize, "LLM_EMBEDDING_CACHE_SIZE")

	setInt(&cfg.Recommendation.MinDBThreshold, "RECOMMENDATION_MIN_DB_THRESHOLD")
	setInt(&cfg.Recommendation.FallbackTargetSize, "RECOMMENDATION_FALLBACK_TARGET_SIZE")
	setInt(&cfg.Recommendation.FetchLimit, "RECOMMENDATION_FETCH_LIMIT")
	setInt(&cfg.Recommendation.MaxK, "RECOMMENDATION_MAX_K")
	setDuration(&cfg.Recommendation.CacheTTL, "RECOMMENDATION_CACHE_TTL")
	setDuration(&cfg.Recommendation.CallTimeout, "RECOMMENDATION_CALL_TIMEOUT")
	if v := os.Getenv("RECOMMENDATION_CORPUS_PATH"); v != "" {
		cfg.Recommendation.CorpusPath = v
	}

	setFloat(&cfg.Search.Threshold, "SEARCH_THRESHOLD")
	setInt(&cfg.Search.TopK, "SEARCH_TOP_K")
	setInt(&cfg.Search.TargetCount, "SEARCH_TARGET_COUNT")

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Storage.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Storage.Valkey.Addr = v
	}
	if v := os.Getenv("METRICS_NAMESPACE"); v != "" {
		cfg.Metrics.Namespace = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		LLM: LLMConfig{
			EmbeddingModel:      "text-embedding-3-small",
			EmbeddingDimensions: 1536,
			EmbeddingCacheSize:  4096,
		},
		Recommendation: RecommendationConfig{
			MinDBThreshold:     10,
			FallbackTargetSize: 25,
			FetchLimit:         500,
			MaxK:               10,
			KMeansRestarts:     10,
			Seed:               42,
			CacheTTL:           30 * time.Minute,
			CacheMaxEntries:    256,
			CallTimeout:        10 * time.Second,
		},
		Search: SearchConfig{
			Threshold:    0.7,
			TopK:         10,
			TargetCount:  5,
			MaxThreshold: 0.9,
			MinThreshold: 0.5,
			Step:         0.05,
			SampleSize:   50,
			Confidence: ConfidenceConfig{
				High:   0.8,
				Medium: 0.6,
				Low:    0.4,
			},
		},
		Storage: StorageConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			Valkey: ValkeyConfig{
				Prefix: "faq",
			},
		},
		Metrics: MetricsConfig{
			Namespace: "faq",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.LLM.APIKey != "" && strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty when llm.apiKey is set")
	}
	if c.LLM.EmbeddingDimensions < 0 {
		return errors.New("llm.embeddingDimensions cannot be negative")
	}

	r := c.Recommendation
	if r.MinDBThreshold <= 0 {
		return errors.New("recommendation.minDbThreshold must be positive")
	}
	if r.FallbackTargetSize <= 0 {
		return errors.New("recommendation.fallbackTargetSize must be positive")
	}
	if r.FetchLimit < r.MinDBThreshold {
		return errors.New("recommendation.fetchLimit must be at least minDbThreshold")
	}
	if r.MaxK < 2 {
		return errors.New("recommendation.maxK must be at least 2")
	}
	if r.KMeansRestarts <= 0 {
		return errors.New("recommendation.kmeansRestarts must be positive")
	}
	if r.CacheTTL < 0 {
		return errors.New("recommendation.cacheTtl cannot be negative")
	}
	if r.CacheMaxEntries <= 0 {
		return errors.New("recommendation.cacheMaxEntries must be positive")
	}
	if r.CallTimeout < 0 {
		return errors.New("recommendation.callTimeout cannot be negative")
	}

	s := c.Search
	if s.Threshold < 0 || s.Threshold > 1 {
		return errors.New("search.threshold must be within [0,1]")
	}
	if s.TopK <= 0 || s.TargetCount <= 0 || s.SampleSize <= 0 {
		return errors.New("search.topK, search.targetCount and search.sampleSize must be positive")
	}
	if s.MinResults < 0 {
		return errors.New("search.minResults cannot be negative")
	}
	if s.Step <= 0 {
		return errors.New("search.step must be positive")
	}
	if s.MinThreshold > s.MaxThreshold {
		return errors.New("search.minThreshold cannot exceed search.maxThreshold")
	}
	if !(s.Confidence.Low <= s.Confidence.Medium && s.Confidence.Medium <= s.Confidence.High) {
		return errors.New("search.confidence thresholds must satisfy low <= medium <= high")
	}

	if c.Storage.Valkey.Enabled && strings.TrimSpace(c.Storage.Valkey.Addr) == "" {
		return errors.New("storage.valkey.addr cannot be empty when valkey cache is enabled")
	}
	return nil
}
