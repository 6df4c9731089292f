package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the OSINT aggregation service. It is
// constructed once at process start and passed explicitly into every
// component; nothing reads the environment after Load returns.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sources SourcesConfig `mapstructure:"sources"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Extract ExtractConfig `mapstructure:"extract"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SourcesConfig contains per-provider credentials and shared fetch settings.
// An empty API key disables the corresponding provider (silent skip, not an
// error).
type SourcesConfig struct {
	GuardianAPIKey string        `mapstructure:"guardian_api_key"`
	CurrentsAPIKey string        `mapstructure:"currents_api_key"`
	NewsdataAPIKey string        `mapstructure:"newsdata_api_key"`
	GNewsAPIKey    string        `mapstructure:"gnews_api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	AllowDomains   []string      `mapstructure:"allow_domains"`
	BlockDomains   []string      `mapstructure:"block_domains"`
}

// LLMConfig contains Gemini settings for the analysis pipeline
type LLMConfig struct {
	GeminiAPIKey     string   `mapstructure:"gemini_api_key"`
	DefaultModel     string   `mapstructure:"default_model"`
	FallbackModels   []string `mapstructure:"fallback_models"`
	MaxCharsPerChunk int      `mapstructure:"max_chars_per_chunk"`
}

// ExtractConfig contains bounds for full-text extraction fetches
type ExtractConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// CacheConfig contains the optional Redis aggregate-result cache. An empty
// address disables caching entirely.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	return nil
}

func (e ExtractConfig) Validate() error {
	if e.MaxRedirects < 0 {
		return fmt.Errorf("extract.max_redirects cannot be negative")
	}
	if e.MaxBodyBytes <= 0 {
		return fmt.Errorf("extract.max_body_bytes must be > 0")
	}
	return nil
}

// Load reads configuration from an optional file plus OSINT_* environment
// variables. A missing config file is fine; env vars and defaults carry it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.address", "127.0.0.1:3001")
	v.SetDefault("sources.timeout", 12*time.Second)
	// Credential keys need registered defaults so OSINT_* env values are
	// visible to Unmarshal.
	v.SetDefault("sources.guardian_api_key", "")
	v.SetDefault("sources.currents_api_key", "")
	v.SetDefault("sources.newsdata_api_key", "")
	v.SetDefault("sources.gnews_api_key", "")
	v.SetDefault("sources.allow_domains", []string{})
	v.SetDefault("sources.block_domains", []string{})
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("llm.default_model", "gemini-1.5-flash")
	v.SetDefault("llm.fallback_models", []string{
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-pro",
		"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash",
	})
	v.SetDefault("llm.max_chars_per_chunk", 12000)
	v.SetDefault("extract.timeout", 15*time.Second)
	v.SetDefault("extract.max_redirects", 3)
	v.SetDefault("extract.max_body_bytes", 2_000_000)
	v.SetDefault("extract.user_agent", "Mozilla/5.0 (OSINT Aggregator; +https://localhost) Chrome/120")
	v.SetDefault("cache.ttl", 5*time.Minute)

	if path == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("OSINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Extract.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
