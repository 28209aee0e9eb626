package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "FEED_AGENT_CONFIG"
	databasePathEnv = "DATABASE_PATH"
	llmProviderEnv  = "LLM_PROVIDER"
	llmAPIKeyEnv    = "LLM_API_KEY"
	llmModelEnv     = "LLM_MODEL"
	logLevelEnv     = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig        `yaml:"database"`
	Logging   LoggingConfig         `yaml:"logging"`
	Scheduler SchedulerConfig       `yaml:"scheduler"`
	LLM       LLMConfig             `yaml:"llm"`
	Ingest    IngestConfig          `yaml:"ingest"`
	Summarize SummarizeConfig       `yaml:"summarize"`
	Cache     CacheConfig           `yaml:"cache"`
	Feeds     map[string]FeedConfig `yaml:"feeds"`
}

// DatabaseConfig describes where the embedded SQLite file lives.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LLMConfig selects and parameterizes the provider used for synthesis.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// IngestConfig tunes feed fetching.
type IngestConfig struct {
	LookbackHours      int  `yaml:"lookbackHours"`
	MaxArticlesPerFeed int  `yaml:"maxArticlesPerFeed"`
	TimeoutSeconds     int  `yaml:"timeoutSeconds"`
	Workers            int  `yaml:"workers"`
	FetchContent       bool `yaml:"fetchContent"`
	MinContentChars    int  `yaml:"minContentChars"`
}

// SummarizeConfig tunes the LLM fan-out stage.
type SummarizeConfig struct {
	Workers         int `yaml:"workers"`
	MaxContentChars int `yaml:"maxContentChars"`
}

// CacheConfig controls the response cache TTL.
type CacheConfig struct {
	TTLDays int `yaml:"ttlDays"`
}

// FeedConfig describes a single configured feed. The core consumes only
// URL and Category; Priority and Notes are operator annotations.
type FeedConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Priority int    `yaml:"priority"`
	Notes    string `yaml:"notes"`
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
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.TimeoutSeconds > 0 {
		base.LLM.TimeoutSeconds = override.LLM.TimeoutSeconds
	}

	if override.Ingest.LookbackHours > 0 {
		base.Ingest.LookbackHours = override.Ingest.LookbackHours
	}
	if override.Ingest.MaxArticlesPerFeed > 0 {
		base.Ingest.MaxArticlesPerFeed = override.Ingest.MaxArticlesPerFeed
	}
	if override.Ingest.TimeoutSeconds > 0 {
		base.Ingest.TimeoutSeconds = override.Ingest.TimeoutSeconds
	}
	if override.Ingest.Workers > 0 {
		base.Ingest.Workers = override.Ingest.Workers
	}
	if override.Ingest.FetchContent {
		base.Ingest.FetchContent = true
	}
	if override.Ingest.MinContentChars > 0 {
		base.Ingest.MinContentChars = override.Ingest.MinContentChars
	}

	if override.Summarize.Workers > 0 {
		base.Summarize.Workers = override.Summarize.Workers
	}
	if override.Summarize.MaxContentChars > 0 {
		base.Summarize.MaxContentChars = override.Summarize.MaxContentChars
	}

	if override.Cache.TTLDays > 0 {
		base.Cache.TTLDays = override.Cache.TTLDays
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Path: "data/articles.db"},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronExpression: "0 7 * * *", Timezone: defaultTimezone, location: tz},
		LLM: LLMConfig{
			Provider:       "gemini",
			TimeoutSeconds: 120,
		},
		Ingest: IngestConfig{
			LookbackHours:      24,
			MaxArticlesPerFeed: 10,
			TimeoutSeconds:     30,
			Workers:            10,
			MinContentChars:    500,
		},
		Summarize: SummarizeConfig{
			Workers:         4,
			MaxContentChars: 30000,
		},
		Cache: CacheConfig{TTLDays: 7},
		Feeds: map[string]FeedConfig{},
	}
}
