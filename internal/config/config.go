package config

import (
	"errors"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "NEWSRELAY_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	geminiKeyEnv   = "GEMINI_API_KEY"
	geminiModelEnv = "GEMINI_MODEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Process  ProcessConfig  `yaml:"process"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// IngestConfig tunes the source ingestion run.
type IngestConfig struct {
	MaxAgeDays       int  `yaml:"maxAgeDays"`
	PerSourceLimit   int  `yaml:"perSourceLimit"`
	MinContentLength int  `yaml:"minContentLength"`
	SourceDelayMS    int  `yaml:"sourceDelayMs"`
	ArticleDelayMS   int  `yaml:"articleDelayMs"`
	SkipFullContent  bool `yaml:"skipFullContent"`
}

// SourceDelay is the pause between two sources.
func (c IngestConfig) SourceDelay() time.Duration {
	return time.Duration(c.SourceDelayMS) * time.Millisecond
}

// ArticleDelay is the pause between two outbound article fetches.
func (c IngestConfig) ArticleDelay() time.Duration {
	return time.Duration(c.ArticleDelayMS) * time.Millisecond
}

// RetryConfig parameterizes one backoff policy.
type RetryConfig struct {
	MaxRetries      int `yaml:"maxRetries"`
	InitialDelaySec int `yaml:"initialDelaySec"`
	MaxDelaySec     int `yaml:"maxDelaySec"`
}

// InitialDelay converts the configured seconds to a duration.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySec) * time.Second
}

// MaxDelay converts the configured cap to a duration.
func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySec) * time.Second
}

// ProcessConfig tunes the enrichment run. Content operations carry a longer
// backoff than the cheap title/description translations.
type ProcessConfig struct {
	Limit          int         `yaml:"limit"`
	MaxAgeHours    int         `yaml:"maxAgeHours"`
	ArticleDelayMS int         `yaml:"articleDelayMs"`
	ContentRetry   RetryConfig `yaml:"contentRetry"`
	ShortRetry     RetryConfig `yaml:"shortRetry"`
}

// ArticleDelay is the pause between two generative-service conversations.
func (c ProcessConfig) ArticleDelay() time.Duration {
	return time.Duration(c.ArticleDelayMS) * time.Millisecond
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
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

// Validate reports missing credentials. These are the only fatal errors in the
// system; everything downstream is logged and survived.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: database DSN is required (DATABASE_DSN)")
	}
	if c.Gemini.APIKey == "" {
		return errors.New("config: Gemini API key is required (GEMINI_API_KEY)")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.Ingest.MaxAgeDays != 0 {
		base.Ingest.MaxAgeDays = override.Ingest.MaxAgeDays
	}
	if override.Ingest.PerSourceLimit != 0 {
		base.Ingest.PerSourceLimit = override.Ingest.PerSourceLimit
	}
	if override.Ingest.MinContentLength != 0 {
		base.Ingest.MinContentLength = override.Ingest.MinContentLength
	}
	if override.Ingest.SourceDelayMS != 0 {
		base.Ingest.SourceDelayMS = override.Ingest.SourceDelayMS
	}
	if override.Ingest.ArticleDelayMS != 0 {
		base.Ingest.ArticleDelayMS = override.Ingest.ArticleDelayMS
	}
	if override.Ingest.SkipFullContent {
		base.Ingest.SkipFullContent = true
	}

	if override.Process.Limit != 0 {
		base.Process.Limit = override.Process.Limit
	}
	if override.Process.MaxAgeHours != 0 {
		base.Process.MaxAgeHours = override.Process.MaxAgeHours
	}
	if override.Process.ArticleDelayMS != 0 {
		base.Process.ArticleDelayMS = override.Process.ArticleDelayMS
	}
	base.Process.ContentRetry = mergeRetry(base.Process.ContentRetry, override.Process.ContentRetry)
	base.Process.ShortRetry = mergeRetry(base.Process.ShortRetry, override.Process.ShortRetry)

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func mergeRetry(base, override RetryConfig) RetryConfig {
	if override.MaxRetries != 0 {
		base.MaxRetries = override.MaxRetries
	}
	if override.InitialDelaySec != 0 {
		base.InitialDelaySec = override.InitialDelaySec
	}
	if override.MaxDelaySec != 0 {
		base.MaxDelaySec = override.MaxDelaySec
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{DSN: ""},
		Gemini:   GeminiConfig{Model: "gemini-1.5-pro"},
		Ingest: IngestConfig{
			MaxAgeDays:       1,
			PerSourceLimit:   10,
			MinContentLength: 500,
			SourceDelayMS:    1000,
			ArticleDelayMS:   500,
		},
		Process: ProcessConfig{
			Limit:          5,
			MaxAgeHours:    24,
			ArticleDelayMS: 2000,
			ContentRetry:   RetryConfig{MaxRetries: 3, InitialDelaySec: 15, MaxDelaySec: 120},
			ShortRetry:     RetryConfig{MaxRetries: 3, InitialDelaySec: 10, MaxDelaySec: 60},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
