package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Pricing     PricingConfig     `yaml:"pricing" mapstructure:"pricing"`
	Aggregation AggregationConfig `yaml:"aggregation" mapstructure:"aggregation"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Monitoring  MonitoringConfig  `yaml:"monitoring" mapstructure:"monitoring"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// LLMConfig configures the generation backend's resilience policy.
type LLMConfig struct {
	MaxRetryAttempts        int     `yaml:"max_retry_attempts" mapstructure:"max_retry_attempts"`
	RetryBackoffMs          int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	MaxBackoffMs            int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	RequestsPerMinute       float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	CircuitFailureThreshold int     `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
	RequestTimeoutSecs      int     `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	BatchDiscount float64 `yaml:"batch_discount" mapstructure:"batch_discount"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// AggregationConfig configures cross-source dedup and scoring.
type AggregationConfig struct {
	RecencyWeight          float64            `yaml:"recency_weight" mapstructure:"recency_weight"`
	EngagementWeight       float64            `yaml:"engagement_weight" mapstructure:"engagement_weight"`
	MaxItemAgeDays         float64            `yaml:"max_item_age_days" mapstructure:"max_item_age_days"`
	NearDuplicateThreshold float64            `yaml:"near_duplicate_threshold" mapstructure:"near_duplicate_threshold"`
	CommentWeight          float64            `yaml:"comment_weight" mapstructure:"comment_weight"`
	RedditSourceWeight     float64            `yaml:"reddit_source_weight" mapstructure:"reddit_source_weight"`
	GoogleSourceWeight     float64            `yaml:"google_source_weight" mapstructure:"google_source_weight"`
	DefaultSourceWeight    float64            `yaml:"default_source_weight" mapstructure:"default_source_weight"`
	ExtraSourceWeights     map[string]float64 `yaml:"extra_source_weights" mapstructure:"extra_source_weights"`
}

// ExtractionConfig configures pain point extraction.
type ExtractionConfig struct {
	BatchSize    int `yaml:"batch_size" mapstructure:"batch_size"`
	MaxDocuments int `yaml:"max_documents" mapstructure:"max_documents"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" mapstructure:"max_concurrent_runs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures run health alerts.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	AlertCooldownSecs    int     `yaml:"alert_cooldown_secs" mapstructure:"alert_cooldown_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; existing environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PAINPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "painpoint.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.max_concurrent_runs", 4)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("llm.max_retry_attempts", 3)
	v.SetDefault("llm.retry_backoff_ms", 1000)
	v.SetDefault("llm.max_backoff_ms", 30000)
	v.SetDefault("llm.requests_per_minute", 50)
	v.SetDefault("llm.circuit_failure_threshold", 5)
	v.SetDefault("llm.circuit_reset_secs", 30)
	v.SetDefault("llm.request_timeout_secs", 60)
	v.SetDefault("aggregation.recency_weight", 0.55)
	v.SetDefault("aggregation.engagement_weight", 0.45)
	v.SetDefault("aggregation.max_item_age_days", 365)
	v.SetDefault("aggregation.near_duplicate_threshold", 0.82)
	v.SetDefault("aggregation.comment_weight", 0.5)
	v.SetDefault("aggregation.reddit_source_weight", 1.0)
	v.SetDefault("aggregation.google_source_weight", 0.9)
	v.SetDefault("aggregation.default_source_weight", 0.75)
	v.SetDefault("extraction.batch_size", 10)
	v.SetDefault("extraction.max_documents", 0)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.alert_cooldown_secs", 3600)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.cost_threshold_usd", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
