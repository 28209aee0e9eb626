package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"feedagent/internal/config"
	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// fakeSource maps feed URLs to canned fetch results.
type fakeSource struct {
	mu      sync.Mutex
	results map[string]domain.FeedFetchResult
	fetched []string
}

func (f *fakeSource) Fetch(_ context.Context, req domain.FeedRequest) domain.FeedFetchResult {
	f.mu.Lock()
	f.fetched = append(f.fetched, req.URL)
	f.mu.Unlock()

	result, ok := f.results[req.URL]
	if !ok {
		return domain.FeedFetchResult{FeedURL: req.URL, FeedName: req.Name, Error: "no canned result"}
	}
	return result
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string) (string, error) {
	return f.text, f.err
}

var (
	_ ports.FeedSource       = (*fakeSource)(nil)
	_ ports.ContentExtractor = (*fakeExtractor)(nil)
)

func fetchSuccess(url, name string, count int) domain.FeedFetchResult {
	var articles []domain.Article
	for i := 0; i < count; i++ {
		articleURL := fmt.Sprintf("%s/article-%d", url, i)
		articles = append(articles, domain.Article{
			ID:        domain.ArticleID(articleURL),
			URL:       articleURL,
			Title:     fmt.Sprintf("%s %d", name, i),
			FeedName:  name,
			FeedURL:   url,
			Published: time.Now().UTC(),
			Content:   "entry content long enough to skip enrichment entirely",
			Category:  "Tech",
			Status:    domain.StatusPending,
		})
	}
	return domain.FeedFetchResult{
		FeedURL:  url,
		FeedName: name,
		Articles: articles,
		Success:  true,
	}
}

func TestIngestRunCountsAndDeduplicates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{results: map[string]domain.FeedFetchResult{
		"https://a.com/feed": fetchSuccess("https://a.com/feed", "Alpha", 3),
		"https://b.com/feed": fetchSuccess("https://b.com/feed", "Beta", 2),
		"https://c.com/feed": {
			FeedURL: "https://c.com/feed", FeedName: "Gamma",
			Error: "HTTP 500 for https://c.com/feed",
		},
	}}
	repo := newMemoryRepository()

	coordinator := NewIngestionCoordinator(source, repo, nil,
		config.IngestConfig{LookbackHours: 24, MaxArticlesPerFeed: 10, Workers: 3}, nil)

	feeds := map[string]config.FeedConfig{
		"alpha": {URL: "https://a.com/feed", Category: "Tech"},
		"beta":  {URL: "https://b.com/feed", Category: "Tech"},
		"gamma": {URL: "https://c.com/feed", Category: "Tech"},
	}

	result := coordinator.Run(context.Background(), feeds)

	if result.FeedsChecked != 3 {
		t.Fatalf("feeds checked: got %d, want 3", result.FeedsChecked)
	}
	if result.FeedsSucceeded != 2 || result.FeedsFailed != 1 {
		t.Fatalf("succeeded/failed: got %d/%d, want 2/1", result.FeedsSucceeded, result.FeedsFailed)
	}
	if result.ArticlesFound != 5 || result.ArticlesNew != 5 {
		t.Fatalf("found/new: got %d/%d, want 5/5", result.ArticlesFound, result.ArticlesNew)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Gamma") {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	// Feed health must be recorded for every feed, success or not.
	if ok, recorded := repo.feedStatus["https://c.com/feed"]; !recorded || ok {
		t.Fatalf("failed feed should be recorded unhealthy: ok=%v recorded=%v", ok, recorded)
	}
	if ok := repo.feedStatus["https://a.com/feed"]; !ok {
		t.Fatal("healthy feed should be recorded healthy")
	}

	// Re-running over the same feeds finds the same articles but inserts
	// nothing new.
	rerun := coordinator.Run(context.Background(), feeds)
	if rerun.ArticlesFound != 5 || rerun.ArticlesNew != 0 {
		t.Fatalf("rerun found/new: got %d/%d, want 5/0", rerun.ArticlesFound, rerun.ArticlesNew)
	}
}

func TestIngestRunSkipsFeedsWithoutURL(t *testing.T) {
	t.Parallel()

	source := &fakeSource{results: map[string]domain.FeedFetchResult{}}
	coordinator := NewIngestionCoordinator(source, newMemoryRepository(), nil,
		config.IngestConfig{Workers: 2}, nil)

	result := coordinator.Run(context.Background(), map[string]config.FeedConfig{
		"misconfigured": {Category: "Tech"},
	})

	if result.FeedsChecked != 0 {
		t.Fatalf("URL-less feed should be skipped, got %d checked", result.FeedsChecked)
	}
	if len(source.fetched) != 0 {
		t.Fatalf("no fetches expected, got %v", source.fetched)
	}
}

func TestIngestEnrichesThinContent(t *testing.T) {
	t.Parallel()

	thin := fetchSuccess("https://a.com/feed", "Alpha", 1)
	thin.Articles[0].Content = "tiny"

	source := &fakeSource{results: map[string]domain.FeedFetchResult{
		"https://a.com/feed": thin,
	}}
	repo := newMemoryRepository()
	extractor := &fakeExtractor{text: "full readable text with many more words than the entry had"}

	coordinator := NewIngestionCoordinator(source, repo, extractor,
		config.IngestConfig{Workers: 1, FetchContent: true, MinContentChars: 100}, nil)

	coordinator.Run(context.Background(), map[string]config.FeedConfig{
		"alpha": {URL: "https://a.com/feed"},
	})

	stored := repo.articles[thin.Articles[0].ID]
	if stored.Content != extractor.text {
		t.Fatalf("content should be enriched, got %q", stored.Content)
	}
	if stored.WordCount != len(strings.Fields(extractor.text)) {
		t.Fatalf("word count should follow enrichment, got %d", stored.WordCount)
	}
}

func TestIngestEnrichmentFailureKeepsEntryContent(t *testing.T) {
	t.Parallel()

	thin := fetchSuccess("https://a.com/feed", "Alpha", 1)
	thin.Articles[0].Content = "tiny"

	source := &fakeSource{results: map[string]domain.FeedFetchResult{
		"https://a.com/feed": thin,
	}}
	repo := newMemoryRepository()
	extractor := &fakeExtractor{err: fmt.Errorf("HTTP 404")}

	coordinator := NewIngestionCoordinator(source, repo, extractor,
		config.IngestConfig{Workers: 1, FetchContent: true, MinContentChars: 100}, nil)

	result := coordinator.Run(context.Background(), map[string]config.FeedConfig{
		"alpha": {URL: "https://a.com/feed"},
	})

	if result.ArticlesNew != 1 {
		t.Fatalf("extraction failure must not drop the article, got %d new", result.ArticlesNew)
	}
	if repo.articles[thin.Articles[0].ID].Content != "tiny" {
		t.Fatal("entry content should survive a failed extraction")
	}
}
