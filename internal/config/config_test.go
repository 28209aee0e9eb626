package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Database.Path != "data/articles.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Fatalf("unexpected provider: %s", cfg.LLM.Provider)
	}
	if cfg.Ingest.LookbackHours != 24 || cfg.Ingest.MaxArticlesPerFeed != 10 {
		t.Fatalf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
	if cfg.Ingest.Workers != 10 || cfg.Summarize.Workers != 4 {
		t.Fatalf("unexpected worker defaults: %d/%d", cfg.Ingest.Workers, cfg.Summarize.Workers)
	}
	if cfg.Cache.TTLDays != 7 {
		t.Fatalf("unexpected cache TTL: %d", cfg.Cache.TTLDays)
	}
	if cfg.Scheduler.CronExpression != "0 7 * * *" {
		t.Fatalf("unexpected cron expression: %s", cfg.Scheduler.CronExpression)
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatal("scheduler location should never be nil")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /tmp/custom.db
llm:
  provider: openai
  model: gpt-4o-mini
ingest:
  lookbackHours: 48
feeds:
  hn:
    url: https://news.ycombinator.com/rss
    category: Tech
    priority: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FEED_AGENT_CONFIG", path)

	cfg := Load()

	if cfg.Database.Path != "/tmp/custom.db" {
		t.Fatalf("file override lost: %s", cfg.Database.Path)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("llm overrides lost: %+v", cfg.LLM)
	}
	if cfg.Ingest.LookbackHours != 48 {
		t.Fatalf("ingest override lost: %d", cfg.Ingest.LookbackHours)
	}
	// Untouched fields keep defaults.
	if cfg.Ingest.MaxArticlesPerFeed != 10 {
		t.Fatalf("default clobbered: %d", cfg.Ingest.MaxArticlesPerFeed)
	}

	feed, ok := cfg.Feeds["hn"]
	if !ok {
		t.Fatal("feed entry missing")
	}
	if feed.URL != "https://news.ycombinator.com/rss" || feed.Category != "Tech" {
		t.Fatalf("unexpected feed: %+v", feed)
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FEED_AGENT_CONFIG", path)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("DATABASE_PATH", "/tmp/env.db")

	cfg := Load()

	if cfg.LLM.Provider != "anthropic" {
		t.Fatalf("env should beat file: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("api key override lost: %s", cfg.LLM.APIKey)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Fatalf("database override lost: %s", cfg.Database.Path)
	}
}

func TestLoadMissingConfigFileFallsBack(t *testing.T) {
	t.Setenv("FEED_AGENT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.LLM.Provider != "gemini" {
		t.Fatalf("missing file should keep defaults: %s", cfg.LLM.Provider)
	}
}

func TestBindTimezone(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "America/New_York"
	cfg.bindTimezone()

	if cfg.Scheduler.Location().String() != "America/New_York" {
		t.Fatalf("unexpected location: %s", cfg.Scheduler.Location())
	}

	cfg.Scheduler.Timezone = "Not/AZone"
	cfg.bindTimezone()
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("bad timezone should revert to UTC, got %s", cfg.Scheduler.Location())
	}
}
