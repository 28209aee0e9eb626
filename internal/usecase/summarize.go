package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"unicode/utf8"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

const (
	defaultSummarizeWorkers = 4
	defaultMaxContentChars  = 30000
	truncationMarker        = "\n\n[Content truncated...]"
)

// ProgressFunc reports batch progress as results complete. It is a side
// channel for operators, not part of the data contract.
type ProgressFunc func(completed, total int, article domain.Article)

// Summarizer orchestrates per-article LLM calls with cache lookups and a
// bounded fan-out.
type Summarizer struct {
	client          ports.LLMClient
	cache           ports.ResponseCache
	model           string
	workers         int
	maxContentChars int
	cacheTTLDays    int
	logger          *slog.Logger
}

// cachedSummary is the JSON blob stored per (article, model) pair.
type cachedSummary struct {
	Summary      string   `json:"summary"`
	KeyTakeaways []string `json:"key_takeaways"`
	ActionItems  []string `json:"action_items"`
}

// NewSummarizer builds the summarization stage. The cache is optional;
// without one every call goes to the provider.
func NewSummarizer(client ports.LLMClient, cache ports.ResponseCache, model string, workers, maxContentChars, cacheTTLDays int, logger *slog.Logger) *Summarizer {
	if workers <= 0 {
		workers = defaultSummarizeWorkers
	}
	if maxContentChars <= 0 {
		maxContentChars = defaultMaxContentChars
	}
	return &Summarizer{
		client:          client,
		cache:           cache,
		model:           model,
		workers:         workers,
		maxContentChars: maxContentChars,
		cacheTTLDays:    cacheTTLDays,
		logger:          logger,
	}
}

// SummarizeOne generates a summary for a single article, consulting the
// cache first. LLM failures are folded into the result so batch callers
// can keep going.
func (s *Summarizer) SummarizeOne(ctx context.Context, article domain.Article) domain.SummaryResult {
	if cached, ok := s.fromCache(ctx, article); ok {
		return cached
	}

	// Provider context windows and cost scale with input size.
	content := truncateContent(article.Content, s.maxContentChars)

	response, err := s.client.Generate(ctx,
		articleSummaryPrompt(article, content), articleSummarySystem, articleSummarySchema)
	if err != nil {
		s.warn("summarization failed", "article", article.ID, "error", err)
		return domain.SummaryResult{
			Success:   false,
			ArticleID: article.ID,
			Error:     err.Error(),
		}
	}

	result := domain.SummaryResult{
		Success:      true,
		ArticleID:    article.ID,
		Summary:      parsedString(response.Parsed, "summary"),
		KeyTakeaways: parsedStrings(response.Parsed, "key_takeaways"),
		ActionItems:  parsedStrings(response.Parsed, "action_items"),
		TokensUsed:   response.InputTokens + response.OutputTokens,
	}

	s.toCache(ctx, article, result)
	return result
}

// SummarizeBatch fans SummarizeOne out over a bounded worker pool and
// returns results index-aligned with the input, whatever the completion
// order. The pool is deliberately smaller than ingestion's: LLM calls
// are costlier and provider-rate-limited.
func (s *Summarizer) SummarizeBatch(ctx context.Context, articles []domain.Article, onProgress ProgressFunc) []domain.SummaryResult {
	results := make([]domain.SummaryResult, len(articles))
	if len(articles) == 0 {
		return results
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	sem := make(chan struct{}, s.workers)
	for i, article := range articles {
		wg.Add(1)
		go func(i int, article domain.Article) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = s.SummarizeOne(ctx, article)

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if onProgress != nil {
				onProgress(done, len(articles), article)
			}
		}(i, article)
	}
	wg.Wait()

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	s.info("batch summarized", "successful", successful, "total", len(articles))

	return results
}

func (s *Summarizer) fromCache(ctx context.Context, article domain.Article) (domain.SummaryResult, bool) {
	if s.cache == nil {
		return domain.SummaryResult{}, false
	}

	key := domain.SummaryCacheKey(article.ID, s.model)
	raw, ok, err := s.cache.Get(ctx, domain.CacheKindSummary, key)
	if err != nil {
		s.warn("cache lookup failed", "article", article.ID, "error", err)
		return domain.SummaryResult{}, false
	}
	if !ok {
		return domain.SummaryResult{}, false
	}

	var cached cachedSummary
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.warn("cache entry undecodable", "article", article.ID, "error", err)
		return domain.SummaryResult{}, false
	}

	s.info("cache hit", "article", article.ID, "model", s.model)
	return domain.SummaryResult{
		Success:      true,
		ArticleID:    article.ID,
		Summary:      cached.Summary,
		KeyTakeaways: cached.KeyTakeaways,
		ActionItems:  cached.ActionItems,
		TokensUsed:   0,
		Cached:       true,
	}, true
}

func (s *Summarizer) toCache(ctx context.Context, article domain.Article, result domain.SummaryResult) {
	if s.cache == nil {
		return
	}

	key := domain.SummaryCacheKey(article.ID, s.model)
	err := s.cache.Set(ctx, domain.CacheKindSummary, key, cachedSummary{
		Summary:      result.Summary,
		KeyTakeaways: result.KeyTakeaways,
		ActionItems:  result.ActionItems,
	}, s.cacheTTLDays)
	if err != nil {
		s.warn("cache write failed", "article", article.ID, "error", err)
	}
}

// truncateContent cuts content at a rune boundary at or below max bytes
// and appends the truncation marker. Splitting mid-rune would leave an
// invalid byte sequence right where the marker goes.
func truncateContent(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker
}

func parsedString(parsed map[string]any, key string) string {
	if value, ok := parsed[key].(string); ok {
		return value
	}
	return ""
}

func parsedStrings(parsed map[string]any, key string) []string {
	raw, ok := parsed[key].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if value, ok := item.(string); ok {
			values = append(values, value)
		}
	}
	return values
}

func (s *Summarizer) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Summarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
