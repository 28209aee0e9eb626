package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// Some feed hosts/CDNs answer generic fetchers with a false 403/404. For
// exactly those statuses the fetcher retries once with browser-like
// headers; any other status is final. No backoff on purpose: a blocked
// host should not be hammered.
var botFilterStatuses = map[int]bool{
	http.StatusForbidden: true,
	http.StatusNotFound:  true,
}

var feedAgentHeaders = map[string]string{
	"User-Agent": "FeedAgent/1.0",
	"Accept":     "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8",
}

var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9," +
		"application/rss+xml,application/atom+xml,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Fetcher retrieves and parses a single RSS/Atom feed.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client with the configured request timeout.
func NewFetcher(client *http.Client, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch retrieves one feed and extracts candidate articles within the
// lookback window. Every failure mode is reported inside the result; the
// returned value is always usable by the coordinator.
func (f *Fetcher) Fetch(ctx context.Context, req domain.FeedRequest) domain.FeedFetchResult {
	result := domain.FeedFetchResult{
		FeedURL:  req.URL,
		FeedName: req.Name,
	}

	body, ok := f.request(ctx, req, &result)
	if !ok {
		return result
	}

	parsed, bozo, err := f.parse(body)
	if err != nil {
		result.Error = fmt.Sprintf("parse feed: %v", err)
		result.Bozo = true
		result.BozoExplanation = err.Error()
		f.warn("feed parse error", "feed", req.Name, "error", err)
		return result
	}
	if bozo != "" {
		// Recovered entries from a malformed document: partial success.
		result.Bozo = true
		result.BozoExplanation = bozo
	}

	if parsed.Title != "" {
		result.FeedName = parsed.Title
	}
	result.EntryCount = len(parsed.Items)

	cutoff := time.Now().UTC().Add(-time.Duration(req.LookbackHours) * time.Hour)
	result.Articles = f.collect(parsed.Items, req, result.FeedName, cutoff)
	result.Success = true

	f.debug("feed fetched", "feed", req.Name, "entries", result.EntryCount,
		"articles", len(result.Articles), "attempts", result.Attempts, "bozo", result.Bozo)

	return result
}

// request performs up to two HTTP attempts and fills transport-level
// diagnostics on the result. Returns the response body and whether the
// fetch may proceed to parsing.
func (f *Fetcher) request(ctx context.Context, req domain.FeedRequest, result *domain.FeedFetchResult) ([]byte, bool) {
	profiles := []struct {
		name    string
		headers map[string]string
	}{
		{"feed-agent", feedAgentHeaders},
		{"browser", browserHeaders},
	}

	var (
		body             []byte
		attemptSummaries []string
	)

	for _, profile := range profiles {
		result.Attempts++

		started := time.Now()
		resp, err := f.do(ctx, req.URL, profile.headers)
		result.ResponseTimeMS = float64(time.Since(started).Microseconds()) / 1000

		if err != nil {
			result.Error = f.describeTransportError(err)
			f.warn("feed request failed", "feed", req.Name, "error", result.Error)
			return nil, false
		}

		result.StatusCode = resp.StatusCode
		result.FinalURL = resp.Request.URL.String()
		result.ContentType = resp.Header.Get("Content-Type")
		attemptSummaries = append(attemptSummaries, fmt.Sprintf("%d (%s)", resp.StatusCode, profile.name))

		if resp.StatusCode < http.StatusBadRequest {
			body, err = io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				result.Error = fmt.Sprintf("read feed body: %v", err)
				return nil, false
			}
			return body, true
		}
		resp.Body.Close()

		if !botFilterStatuses[resp.StatusCode] {
			break
		}
		f.debug("bot-filter status, retrying with browser headers",
			"feed", req.Name, "status", resp.StatusCode)
	}

	result.Error = fmt.Sprintf("HTTP %d for %s | attempts: %s",
		result.StatusCode, req.URL, strings.Join(attemptSummaries, ", "))
	if result.ContentType != "" {
		result.Error += " | content-type: " + result.ContentType
	}
	f.warn("feed HTTP error", "feed", req.Name, "error", result.Error)
	return nil, false
}

func (f *Fetcher) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return f.client.Do(req)
}

// describeTransportError distinguishes timeouts from other network errors
// so operators can see which configured limit was hit.
func (f *Fetcher) describeTransportError(err error) string {
	if isTimeout(err) {
		return fmt.Sprintf("request timed out after %s: %v", f.timeout, err)
	}
	return fmt.Sprintf("request feed: %v", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parse tries a strict parse first, then one lenient pass over a sanitized
// body. Encoding-override style warnings are common and recoverable, so a
// document that still yields entries is usable; the second error value
// carries what was wrong with it.
func (f *Fetcher) parse(body []byte) (parsed *gofeed.Feed, bozo string, err error) {
	// A parser per call: gofeed parsers are cheap and this keeps concurrent
	// feed workers independent.
	fp := gofeed.NewParser()
	parsed, err = fp.Parse(strings.NewReader(string(body)))
	if err == nil {
		return parsed, "", nil
	}

	recovered, recoverErr := fp.Parse(strings.NewReader(sanitizeFeedBody(body)))
	if recoverErr != nil || recovered == nil || len(recovered.Items) == 0 {
		return nil, "", err
	}
	return recovered, err.Error(), nil
}

// sanitizeFeedBody strips XML-illegal control characters and a possibly
// lying encoding declaration, keeping the document parseable.
func sanitizeFeedBody(body []byte) string {
	text := strings.ToValidUTF8(string(body), "")
	text = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, text)

	if idx := strings.Index(text, "?>"); idx > 0 && strings.HasPrefix(text, "<?xml") {
		decl := text[:idx]
		if strings.Contains(decl, "encoding") {
			text = `<?xml version="1.0"?>` + text[idx+2:]
		}
	}
	return text
}

// collect walks raw entries and keeps dated, fresh ones. At most
// 2×MaxArticles raw entries are scanned so feeds full of stale items
// cannot make the pass unbounded.
func (f *Fetcher) collect(items []*gofeed.Item, req domain.FeedRequest, feedName string, cutoff time.Time) []domain.Article {
	category := req.Category
	if category == "" {
		category = "Uncategorized"
	}

	scanLimit := req.MaxArticles * 2
	if scanLimit > len(items) {
		scanLimit = len(items)
	}

	articles := make([]domain.Article, 0, req.MaxArticles)
	for _, item := range items[:scanLimit] {
		published, ok := entryDate(item)
		if !ok {
			f.debug("skipping entry without date", "title", item.Title)
			continue
		}
		if published.Before(cutoff) {
			continue
		}
		if item.Link == "" {
			continue
		}

		title := item.Title
		if title == "" {
			title = "Untitled"
		}

		content := entryContent(item)
		articles = append(articles, domain.Article{
			ID:        domain.ArticleID(item.Link),
			URL:       item.Link,
			Title:     title,
			Author:    entryAuthor(item),
			FeedName:  feedName,
			FeedURL:   req.URL,
			Published: published,
			Content:   content,
			WordCount: len(strings.Fields(content)),
			Category:  category,
			Status:    domain.StatusPending,
		})

		if len(articles) >= req.MaxArticles {
			break
		}
	}
	return articles
}

// entryDate resolves a publish date, structured fields first, then
// free-text fields through a permissive parser. Entries with no
// resolvable date are skipped by the caller, never defaulted to now.
func entryDate(item *gofeed.Item) (time.Time, bool) {
	for _, parsed := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if parsed != nil {
			return parsed.UTC(), true
		}
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func entryAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return "Unknown"
}

// entryContent prefers full content over the description and strips HTML
// down to plain text.
func entryContent(item *gofeed.Item) string {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}
	if raw == "" {
		return ""
	}
	return stripHTML(raw)
}

func stripHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
