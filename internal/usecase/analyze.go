package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// Rough per-1k-token pricing used for the run-cost estimate, assuming a
// 70/30 input/output split.
var costPer1kTokens = map[string]struct{ input, output float64 }{
	"gemini":    {input: 0.000075, output: 0.00030},
	"openai":    {input: 0.000150, output: 0.00060},
	"anthropic": {input: 0.003000, output: 0.01500},
}

const synthesisTokensPerCategory = 2000

// Analyzer runs the summarize-and-digest stage over pending articles.
type Analyzer struct {
	repository ports.ArticleRepository
	summarizer *Summarizer
	builder    *DigestBuilder
	provider   string
	lookback   time.Duration
	logger     *slog.Logger
}

// NewAnalyzer wires the analysis stage.
func NewAnalyzer(repository ports.ArticleRepository, summarizer *Summarizer, builder *DigestBuilder, provider string, lookbackHours int, logger *slog.Logger) *Analyzer {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	return &Analyzer{
		repository: repository,
		summarizer: summarizer,
		builder:    builder,
		provider:   provider,
		lookback:   time.Duration(lookbackHours) * time.Hour,
		logger:     logger,
	}
}

// Run summarizes pending articles within the lookback window, records
// each outcome in the store, and builds the digest from whatever
// succeeded. Partial success always beats total failure.
func (a *Analyzer) Run(ctx context.Context) (domain.AnalysisResult, error) {
	started := time.Now()
	result := domain.AnalysisResult{}

	pending := domain.StatusPending
	since := time.Now().UTC().Add(-a.lookback)
	articles, err := a.repository.GetSince(ctx, since, &pending)
	if err != nil {
		return result, fmt.Errorf("load pending articles: %w", err)
	}

	if len(articles) == 0 {
		a.info("no pending articles to analyze")
		result.DurationSeconds = time.Since(started).Seconds()
		return result, nil
	}

	a.info("analyzing articles", "count", len(articles))

	onProgress := func(completed, total int, article domain.Article) {
		a.info("summarize progress", "completed", completed, "total", total, "title", clip(article.Title, 40))
	}
	summaries := a.summarizer.SummarizeBatch(ctx, articles, onProgress)

	var summarized []domain.Article
	for i, summary := range summaries {
		article := articles[i]
		result.TokensUsed += summary.TokensUsed

		if !summary.Success {
			if err := a.repository.UpdateStatus(ctx, article.ID, domain.StatusFailed); err != nil {
				a.warn("status update failed", "article", article.ID, "error", err)
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to summarize: %s - %s", clip(article.Title, 30), summary.Error))
			continue
		}

		if err := a.repository.UpdateSummary(ctx, article.ID,
			summary.Summary, summary.KeyTakeaways, summary.ActionItems); err != nil {
			a.warn("summary persist failed", "article", article.ID, "error", err)
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to persist summary: %s - %v", clip(article.Title, 30), err))
			continue
		}

		article.Summary = summary.Summary
		article.KeyTakeaways = summary.KeyTakeaways
		article.ActionItems = summary.ActionItems
		article.Status = domain.StatusSummarized
		summarized = append(summarized, article)
	}

	if len(summarized) == 0 {
		a.warn("no articles were successfully summarized")
		result.CostEstimateUSD = estimateCost(result.TokensUsed, a.provider)
		result.DurationSeconds = time.Since(started).Seconds()
		return result, nil
	}

	digest := a.builder.Build(ctx, summarized)
	result.TokensUsed += synthesisTokensPerCategory * len(digest.Categories)
	result.ArticlesAnalyzed = len(summarized)
	result.CostEstimateUSD = estimateCost(result.TokensUsed, a.provider)
	result.DurationSeconds = time.Since(started).Seconds()
	digest.ProcessingTimeSeconds = result.DurationSeconds
	result.Digest = &digest

	a.info("analysis complete",
		"articles", result.ArticlesAnalyzed,
		"tokens", result.TokensUsed,
		"duration_s", fmt.Sprintf("%.1f", result.DurationSeconds))

	return result, nil
}

func estimateCost(tokens int, provider string) float64 {
	pricing, ok := costPer1kTokens[provider]
	if !ok {
		pricing = costPer1kTokens["gemini"]
	}
	inputTokens := float64(tokens) * 0.7
	outputTokens := float64(tokens) * 0.3
	return (inputTokens/1000)*pricing.input + (outputTokens/1000)*pricing.output
}

// clip shortens a string for log and error lines, backing up to a rune
// boundary so the ellipsis never follows a split multi-byte character.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}

func (a *Analyzer) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Analyzer) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
