// Package config handles configuration loading for newsent.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Summarize SummarizeConfig `mapstructure:"summarize" yaml:"summarize"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Speech    SpeechConfig    `mapstructure:"speech"    yaml:"speech"`
	History   HistoryConfig   `mapstructure:"history"   yaml:"history"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  yaml:"pipeline"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// DiscoveryConfig holds news discovery settings.
type DiscoveryConfig struct {
	Source          string `mapstructure:"source"            yaml:"source"` // "bing" or "google"
	Limit           int    `mapstructure:"limit"             yaml:"limit"`
	MaxLimit        int    `mapstructure:"max_limit"         yaml:"max_limit"`
	OverfetchFactor int    `mapstructure:"overfetch_factor"  yaml:"overfetch_factor"`
	Retries         int    `mapstructure:"retries"           yaml:"retries"`
	RetryDelaySec   int    `mapstructure:"retry_delay_sec"   yaml:"retry_delay_sec"`
	DateFrom        string `mapstructure:"date_from"         yaml:"date_from"` // MM/DD/YYYY, optional
	DateTo          string `mapstructure:"date_to"           yaml:"date_to"`
	SourcesFile     string `mapstructure:"sources_file"      yaml:"sources_file"` // optional YAML source list
}

// FetchConfig holds article fetching and extraction settings.
type FetchConfig struct {
	TimeoutSec   int     `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
	Retries      int     `mapstructure:"retries"        yaml:"retries"`
	MinBodyChars int     `mapstructure:"min_body_chars" yaml:"min_body_chars"`
	MaxBodyChars int     `mapstructure:"max_body_chars" yaml:"max_body_chars"`
	RatePerSec   float64 `mapstructure:"rate_per_sec"   yaml:"rate_per_sec"` // politeness limit across workers
	RateBurst    int     `mapstructure:"rate_burst"     yaml:"rate_burst"`
}

// SummarizeConfig holds summarizer settings.
type SummarizeConfig struct {
	Backend      string  `mapstructure:"backend"       yaml:"backend"` // "extractive" or "llm"
	MaxSentences int     `mapstructure:"max_sentences" yaml:"max_sentences"`
	MaxWords     int     `mapstructure:"max_words"     yaml:"max_words"`
	OpenAIKey    string  `mapstructure:"openai_key"    yaml:"openai_key"`
	BaseURL      string  `mapstructure:"base_url"      yaml:"base_url"`
	Model        string  `mapstructure:"model"         yaml:"model"`
	Temperature  float64 `mapstructure:"temperature"   yaml:"temperature"`
}

// AnalysisConfig holds sentiment and topic analysis settings.
type AnalysisConfig struct {
	NeutralThreshold float64 `mapstructure:"neutral_threshold"  yaml:"neutral_threshold"`
	LexiconFile      string  `mapstructure:"lexicon_file"       yaml:"lexicon_file"` // optional YAML lexicon overlay
	TopicsPerArticle int     `mapstructure:"topics_per_article" yaml:"topics_per_article"`
}

// SpeechConfig holds text-to-speech settings.
type SpeechConfig struct {
	Enabled            bool   `mapstructure:"enabled"              yaml:"enabled"`
	Language           string `mapstructure:"language"             yaml:"language"`
	Endpoint           string `mapstructure:"endpoint"             yaml:"endpoint"` // override for tests/proxies
	TimeoutSec         int    `mapstructure:"timeout_sec"          yaml:"timeout_sec"`
	BreakerFailures    int    `mapstructure:"breaker_failures"     yaml:"breaker_failures"`
	BreakerCooldownSec int    `mapstructure:"breaker_cooldown_sec" yaml:"breaker_cooldown_sec"`
}

// HistoryConfig holds session history storage settings.
type HistoryConfig struct {
	Backend     string `mapstructure:"backend"      yaml:"backend"` // "memory" or "redis"
	RedisURL    string `mapstructure:"redis_url"    yaml:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	Workers     int `mapstructure:"workers"       yaml:"workers"`
	CacheTTLSec int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"` // repeated-query cache
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newsent/config.yaml (home directory)
//  3. /etc/newsent/config.yaml (system)
//
// Environment variables override config file values.
// Format: NEWSENT_<SECTION>_<KEY>, e.g., NEWSENT_SUMMARIZE_OPENAI_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newsent"))
	v.AddConfigPath("/etc/newsent")

	v.SetEnvPrefix("NEWSENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("NEWSENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Discovery defaults
	v.SetDefault("discovery.source", "bing")
	v.SetDefault("discovery.limit", 5)
	v.SetDefault("discovery.max_limit", 15)
	v.SetDefault("discovery.overfetch_factor", 3)
	v.SetDefault("discovery.retries", 3)
	v.SetDefault("discovery.retry_delay_sec", 2)

	// Fetch defaults
	v.SetDefault("fetch.timeout_sec", 15)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.min_body_chars", 200)
	v.SetDefault("fetch.max_body_chars", 15000)
	v.SetDefault("fetch.rate_per_sec", 1.0)
	v.SetDefault("fetch.rate_burst", 2)

	// Summarize defaults
	v.SetDefault("summarize.backend", "extractive")
	v.SetDefault("summarize.max_sentences", 3)
	v.SetDefault("summarize.max_words", 120)
	v.SetDefault("summarize.base_url", "https://api.openai.com/v1")
	v.SetDefault("summarize.model", "gpt-4o-mini")
	v.SetDefault("summarize.temperature", 0.0)

	// Analysis defaults
	v.SetDefault("analysis.neutral_threshold", 0.1)
	v.SetDefault("analysis.topics_per_article", 5)

	// Speech defaults
	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.language", "en")
	v.SetDefault("speech.timeout_sec", 15)
	v.SetDefault("speech.breaker_failures", 5)
	v.SetDefault("speech.breaker_cooldown_sec", 30)

	// History defaults
	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.redis_url", "redis://localhost:6379/0")
	v.SetDefault("history.redis_prefix", "newsent")

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 5)
	v.SetDefault("pipeline.cache_ttl_sec", 300) // 5 minutes

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("NEWSENT_SUMMARIZE_OPENAI_KEY"); key != "" {
		cfg.Summarize.OpenAIKey = key
	}
	if url := os.Getenv("NEWSENT_HISTORY_REDIS_URL"); url != "" {
		cfg.History.RedisURL = url
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
