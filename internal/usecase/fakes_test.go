package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// fakeLLM answers Generate calls from a user-supplied function and counts
// invocations.
type fakeLLM struct {
	mu       sync.Mutex
	calls    int
	generate func(prompt, system string, schema ports.Schema) (*ports.LLMResponse, error)
}

func (f *fakeLLM) Generate(_ context.Context, prompt, system string, schema ports.Schema) (*ports.LLMResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.generate(prompt, system, schema)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func summaryResponse(summary string) *ports.LLMResponse {
	return &ports.LLMResponse{
		Parsed: map[string]any{
			"summary":       summary,
			"key_takeaways": []any{summary + " takeaway"},
			"action_items":  []any{},
		},
		InputTokens:  100,
		OutputTokens: 50,
	}
}

// memoryCache is a map-backed ports.ResponseCache for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]json.RawMessage{}}
}

func (c *memoryCache) Get(_ context.Context, kind, key string) (json.RawMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[kind+"/"+key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, kind, key string, value any, _ int) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[kind+"/"+key] = encoded
	return nil
}

func (c *memoryCache) Clear(_ context.Context, _ string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.entries))
	c.entries = map[string]json.RawMessage{}
	return n, nil
}

func (c *memoryCache) Stats(context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{Total: len(c.entries)}, nil
}

// memoryRepository is a map-backed ports.ArticleRepository for tests.
type memoryRepository struct {
	mu         sync.Mutex
	articles   map[string]domain.Article
	feedStatus map[string]bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		articles:   map[string]domain.Article{},
		feedStatus: map[string]bool{},
	}
}

func (r *memoryRepository) InsertIfAbsent(_ context.Context, article domain.Article) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.articles[article.ID]; exists {
		return false, nil
	}
	if article.Status == "" {
		article.Status = domain.StatusPending
	}
	r.articles[article.ID] = article
	return true, nil
}

func (r *memoryRepository) GetPending(_ context.Context, limit int) ([]domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Article
	for _, article := range r.articles {
		if article.Status != domain.StatusPending {
			continue
		}
		out = append(out, article)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepository) GetSince(_ context.Context, since time.Time, status *domain.ArticleStatus) ([]domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Article
	for _, article := range r.articles {
		if article.Published.Before(since) {
			continue
		}
		if status != nil && article.Status != *status {
			continue
		}
		out = append(out, article)
	}
	return out, nil
}

func (r *memoryRepository) UpdateSummary(_ context.Context, id, summary string, takeaways, actions []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article := r.articles[id]
	article.Summary = summary
	article.KeyTakeaways = takeaways
	article.ActionItems = actions
	article.Status = domain.StatusSummarized
	r.articles[id] = article
	return nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, status domain.ArticleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article := r.articles[id]
	article.Status = status
	r.articles[id] = article
	return nil
}

func (r *memoryRepository) UpsertFeedStatus(_ context.Context, feedURL, _ string, ok bool, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedStatus[feedURL] = ok
	return nil
}

var (
	_ ports.LLMClient         = (*fakeLLM)(nil)
	_ ports.ResponseCache     = (*memoryCache)(nil)
	_ ports.ArticleRepository = (*memoryRepository)(nil)
)
