package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"feedagent/internal/config"
	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// IngestionCoordinator fans the feed fetcher out across all configured
// feeds and funnels candidates through the deduplicating store.
type IngestionCoordinator struct {
	source     ports.FeedSource
	repository ports.ArticleRepository
	extractor  ports.ContentExtractor
	cfg        config.IngestConfig
	logger     *slog.Logger
}

// NewIngestionCoordinator wires the fetcher, store and optional content
// extractor into the ingestion stage.
func NewIngestionCoordinator(
	source ports.FeedSource,
	repository ports.ArticleRepository,
	extractor ports.ContentExtractor,
	cfg config.IngestConfig,
	logger *slog.Logger,
) *IngestionCoordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	return &IngestionCoordinator{
		source:     source,
		repository: repository,
		extractor:  extractor,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run fetches every configured feed concurrently and persists new
// candidates. One feed's failure never aborts the others; every result is
// collected and reflected in the returned counters.
func (c *IngestionCoordinator) Run(ctx context.Context, feeds map[string]config.FeedConfig) domain.IngestResult {
	started := time.Now()
	result := domain.IngestResult{}

	type job struct {
		name string
		feed config.FeedConfig
	}

	jobs := make(chan job)
	results := make(chan domain.FeedFetchResult)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- c.source.Fetch(ctx, domain.FeedRequest{
					URL:           j.feed.URL,
					Name:          j.name,
					Category:      j.feed.Category,
					LookbackHours: c.cfg.LookbackHours,
					MaxArticles:   c.cfg.MaxArticlesPerFeed,
				})
			}
		}()
	}

	go func() {
		for name, feed := range feeds {
			if feed.URL == "" {
				c.warn("feed has no URL configured", "feed", name)
				continue
			}
			jobs <- job{name: name, feed: feed}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for fetched := range results {
		result.FeedsChecked++
		c.recordFeedStatus(ctx, fetched)

		if !fetched.Success {
			result.FeedsFailed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %s", fetched.FeedName, fetched.Error))
			continue
		}
		result.FeedsSucceeded++

		for _, article := range fetched.Articles {
			result.ArticlesFound++

			c.enrich(ctx, &article)

			wasNew, err := c.repository.InsertIfAbsent(ctx, article)
			if err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: persist %s: %v", fetched.FeedName, article.URL, err))
				continue
			}
			if wasNew {
				result.ArticlesNew++
			}
		}
	}

	result.DurationSeconds = time.Since(started).Seconds()
	c.info("ingestion complete",
		"feeds_checked", result.FeedsChecked,
		"feeds_failed", result.FeedsFailed,
		"articles_found", result.ArticlesFound,
		"articles_new", result.ArticlesNew,
		"duration_s", fmt.Sprintf("%.1f", result.DurationSeconds))

	return result
}

// enrich replaces thin entry content with readable full text when an
// extractor is wired. Extraction failures are non-fatal: the entry body
// is still usable.
func (c *IngestionCoordinator) enrich(ctx context.Context, article *domain.Article) {
	if c.extractor == nil || !c.cfg.FetchContent {
		return
	}
	if len(article.Content) >= c.cfg.MinContentChars {
		return
	}

	text, err := c.extractor.Extract(ctx, article.URL)
	if err != nil {
		c.warn("content extraction failed", "url", article.URL, "error", err)
		return
	}
	if len(text) > len(article.Content) {
		article.Content = text
		article.WordCount = len(strings.Fields(text))
	}
}

func (c *IngestionCoordinator) recordFeedStatus(ctx context.Context, fetched domain.FeedFetchResult) {
	err := c.repository.UpsertFeedStatus(ctx, fetched.FeedURL, fetched.FeedName,
		fetched.Success, fetched.Error)
	if err != nil {
		c.warn("feed status update failed", "feed", fetched.FeedName, "error", err)
	}
}

func (c *IngestionCoordinator) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *IngestionCoordinator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
