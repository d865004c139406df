package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SocialListener/internal/retry"
)

const (
	configPathEnv      = "SOCIAL_LISTENER_CONFIG"
	envFileEnv         = "SOCIAL_LISTENER_ENV_FILE"
	defaultEnvFile     = ".env"
	geminiAPIKeyEnv    = "GEMINI_API_KEY"
	geminiModelEnv     = "GEMINI_MODEL"
	youtubeAPIKeyEnv   = "YOUTUBE_API_KEY"
	redditUserAgentEnv = "REDDIT_USER_AGENT"
	logLevelEnv        = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Reddit   RedditConfig   `yaml:"reddit"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GeminiConfig defines how to contact the Gemini generateContent API.
type GeminiConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"apiKey"`
	MaxOutputTokens int    `yaml:"maxOutputTokens"`
	// Language of summaries and narratives produced by the model.
	Language string `yaml:"language"`
}

// RedditConfig points at the public JSON listing API.
type RedditConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	UserAgent string `yaml:"userAgent"`
	PageSize  int    `yaml:"pageSize"`
}

// YouTubeConfig wires the Data API v3 and the public site used to resolve channel handles.
type YouTubeConfig struct {
	APIKey      string `yaml:"apiKey"`
	BaseURL     string `yaml:"baseUrl"`
	WebURL      string `yaml:"webUrl"`
	SearchLimit int    `yaml:"searchLimit"`
}

// PipelineConfig bounds concurrency, pacing and retries of outbound calls.
type PipelineConfig struct {
	ClassifyConcurrency int           `yaml:"classifyConcurrency"`
	FetchConcurrency    int           `yaml:"fetchConcurrency"`
	ModelRatePerSecond  float64       `yaml:"modelRatePerSecond"`
	FetchRatePerSecond  float64       `yaml:"fetchRatePerSecond"`
	CallTimeout         time.Duration `yaml:"callTimeout"`
	Retry               RetryConfig   `yaml:"retry"`
	DegradedThreshold   float64       `yaml:"degradedThreshold"`
}

// RetryConfig is the exponential backoff policy shared by fetchers and the model.
type RetryConfig struct {
	MaxAttempts      int           `yaml:"maxAttempts"`
	InitialBackoff   time.Duration `yaml:"initialBackoff"`
	MaxBackoff       time.Duration `yaml:"maxBackoff"`
	RateLimitBackoff time.Duration `yaml:"rateLimitBackoff"`
}

// RetryPolicy converts the configuration into a retry.Policy.
func (p PipelineConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:      p.Retry.MaxAttempts,
		InitialBackoff:   p.Retry.InitialBackoff,
		MaxBackoff:       p.Retry.MaxBackoff,
		RateLimitBackoff: p.Retry.RateLimitBackoff,
		AttemptTimeout:   p.CallTimeout,
	}
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	envFile := os.Getenv(envFileEnv)
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load %s: %v", envFile, err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

// Validate checks the settings a command needs. Commands: reddit, youtube, discover.
func (c Config) Validate(command string) error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return &ConfigurationError{Field: "gemini.apiKey", Reason: "missing, set " + geminiAPIKeyEnv}
	}
	if c.Gemini.Model == "" || c.Gemini.Endpoint == "" {
		return &ConfigurationError{Field: "gemini", Reason: "endpoint and model are required"}
	}

	switch command {
	case "reddit":
		if strings.TrimSpace(c.Reddit.UserAgent) == "" {
			return &ConfigurationError{Field: "reddit.userAgent", Reason: "missing, set " + redditUserAgentEnv}
		}
	case "youtube", "discover":
		if strings.TrimSpace(c.YouTube.APIKey) == "" {
			return &ConfigurationError{Field: "youtube.apiKey", Reason: "missing, set " + youtubeAPIKeyEnv}
		}
	default:
		return &ConfigurationError{Field: "command", Reason: fmt.Sprintf("unknown command %q", command)}
	}

	p := c.Pipeline
	switch {
	case p.ClassifyConcurrency <= 0:
		return &ConfigurationError{Field: "pipeline.classifyConcurrency", Reason: "must be positive"}
	case p.FetchConcurrency <= 0:
		return &ConfigurationError{Field: "pipeline.fetchConcurrency", Reason: "must be positive"}
	case p.Retry.MaxAttempts <= 0:
		return &ConfigurationError{Field: "pipeline.retry.maxAttempts", Reason: "must be positive"}
	case p.DegradedThreshold <= 0 || p.DegradedThreshold > 1:
		return &ConfigurationError{Field: "pipeline.degradedThreshold", Reason: "must be in (0, 1]"}
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(youtubeAPIKeyEnv); v != "" {
		c.YouTube.APIKey = v
	}

	if v := os.Getenv(redditUserAgentEnv); v != "" {
		c.Reddit.UserAgent = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.MaxOutputTokens > 0 {
		base.Gemini.MaxOutputTokens = override.Gemini.MaxOutputTokens
	}
	if override.Gemini.Language != "" {
		base.Gemini.Language = override.Gemini.Language
	}

	if override.Reddit.BaseURL != "" {
		base.Reddit.BaseURL = override.Reddit.BaseURL
	}
	if override.Reddit.UserAgent != "" {
		base.Reddit.UserAgent = override.Reddit.UserAgent
	}
	if override.Reddit.PageSize > 0 {
		base.Reddit.PageSize = override.Reddit.PageSize
	}

	if override.YouTube.APIKey != "" {
		base.YouTube.APIKey = override.YouTube.APIKey
	}
	if override.YouTube.BaseURL != "" {
		base.YouTube.BaseURL = override.YouTube.BaseURL
	}
	if override.YouTube.WebURL != "" {
		base.YouTube.WebURL = override.YouTube.WebURL
	}
	if override.YouTube.SearchLimit > 0 {
		base.YouTube.SearchLimit = override.YouTube.SearchLimit
	}

	base.Pipeline = mergePipeline(base.Pipeline, override.Pipeline)

	return base
}

func mergePipeline(base, override PipelineConfig) PipelineConfig {
	if override.ClassifyConcurrency > 0 {
		base.ClassifyConcurrency = override.ClassifyConcurrency
	}
	if override.FetchConcurrency > 0 {
		base.FetchConcurrency = override.FetchConcurrency
	}
	if override.ModelRatePerSecond > 0 {
		base.ModelRatePerSecond = override.ModelRatePerSecond
	}
	if override.FetchRatePerSecond > 0 {
		base.FetchRatePerSecond = override.FetchRatePerSecond
	}
	if override.CallTimeout > 0 {
		base.CallTimeout = override.CallTimeout
	}
	if override.Retry.MaxAttempts > 0 {
		base.Retry.MaxAttempts = override.Retry.MaxAttempts
	}
	if override.Retry.InitialBackoff > 0 {
		base.Retry.InitialBackoff = override.Retry.InitialBackoff
	}
	if override.Retry.MaxBackoff > 0 {
		base.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	if override.Retry.RateLimitBackoff > 0 {
		base.Retry.RateLimitBackoff = override.Retry.RateLimitBackoff
	}
	if override.DegradedThreshold != 0 {
		base.DegradedThreshold = override.DegradedThreshold
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Gemini: GeminiConfig{
			Endpoint:        "https://generativelanguage.googleapis.com/v1beta",
			Model:           "gemini-2.5-flash",
			MaxOutputTokens: 2048,
			Language:        "English",
		},
		Reddit: RedditConfig{
			BaseURL:   "https://www.reddit.com",
			UserAgent: "SocialListener/1.0",
			PageSize:  100,
		},
		YouTube: YouTubeConfig{
			BaseURL:     "https://www.googleapis.com/youtube/v3",
			WebURL:      "https://www.youtube.com",
			SearchLimit: 25,
		},
		Pipeline: PipelineConfig{
			ClassifyConcurrency: 5,
			FetchConcurrency:    5,
			ModelRatePerSecond:  2,
			FetchRatePerSecond:  5,
			CallTimeout:         60 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:      3,
				InitialBackoff:   time.Second,
				MaxBackoff:       10 * time.Second,
				RateLimitBackoff: 30 * time.Second,
			},
			DegradedThreshold: 0.5,
		},
	}
}
