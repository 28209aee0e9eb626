package ports

import (
	"context"
	"encoding/json"
	"time"

	"feedagent/internal/domain"
)

// FeedSource fetches and parses one feed URL into candidate articles.
type FeedSource interface {
	Fetch(ctx context.Context, req domain.FeedRequest) domain.FeedFetchResult
}

// ArticleRepository persists deduplicated articles and their lifecycle.
type ArticleRepository interface {
	InsertIfAbsent(ctx context.Context, article domain.Article) (bool, error)
	GetPending(ctx context.Context, limit int) ([]domain.Article, error)
	GetSince(ctx context.Context, since time.Time, status *domain.ArticleStatus) ([]domain.Article, error)
	UpdateSummary(ctx context.Context, id, summary string, takeaways, actions []string) error
	UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus) error
	UpsertFeedStatus(ctx context.Context, feedURL, feedName string, ok bool, errMsg string) error
}

// ResponseCache stores expensive LLM results with a TTL.
type ResponseCache interface {
	Get(ctx context.Context, kind, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, kind, key string, value any, ttlDays int) error
	Clear(ctx context.Context, kind string) (int64, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
}

// Schema describes the JSON shape an LLM call must return.
type Schema struct {
	Name string
	Raw  map[string]any
}

// LLMResponse is a provider-agnostic result of a generate call.
type LLMResponse struct {
	Parsed       map[string]any
	RawText      string
	InputTokens  int
	OutputTokens int
}

// LLMClient pushes structured prompts to an LLM provider. Transport,
// HTTP-status and schema-parse failures all surface as errors.
type LLMClient interface {
	Generate(ctx context.Context, prompt, system string, schema Schema) (*LLMResponse, error)
}

// ContentExtractor pulls readable full text for an article URL.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// DigestSink consumes a completed digest; delivery transport lives outside
// the core.
type DigestSink interface {
	Deliver(ctx context.Context, digest domain.DailyDigest) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
