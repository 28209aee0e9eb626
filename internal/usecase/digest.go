package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// DigestBuilder assembles the categorized daily digest from summarized
// articles, asking the LLM for per-category and overall synthesis.
type DigestBuilder struct {
	client ports.LLMClient
	logger *slog.Logger
}

// NewDigestBuilder wires the LLM client into the digest stage.
func NewDigestBuilder(client ports.LLMClient, logger *slog.Logger) *DigestBuilder {
	return &DigestBuilder{client: client, logger: logger}
}

// Build groups articles by category and produces the final digest.
// Synthesis failures degrade to deterministic fallbacks: a run with a
// flaky provider still yields a usable digest.
func (b *DigestBuilder) Build(ctx context.Context, articles []domain.Article) domain.DailyDigest {
	b.info("building digest", "articles", len(articles))

	byCategory := map[string][]domain.Article{}
	for _, article := range articles {
		byCategory[article.Category] = append(byCategory[article.Category], article)
	}

	// Alphabetical category order keeps digest output reproducible.
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	categories := make([]domain.CategoryDigest, 0, len(names))
	for _, name := range names {
		categories = append(categories, b.buildCategory(ctx, name, byCategory[name]))
	}

	themes, mustRead := b.synthesizeOverall(ctx, categories)

	feeds := map[string]struct{}{}
	for _, article := range articles {
		feeds[article.FeedURL] = struct{}{}
	}

	digest := domain.DailyDigest{
		ID:            uuid.NewString()[:8],
		Date:          time.Now().UTC(),
		Categories:    categories,
		TotalArticles: len(articles),
		TotalFeeds:    len(feeds),
		OverallThemes: themes,
		MustRead:      mustRead,
	}

	b.info("digest built", "articles", digest.TotalArticles, "categories", len(digest.Categories))
	return digest
}

func (b *DigestBuilder) buildCategory(ctx context.Context, name string, articles []domain.Article) domain.CategoryDigest {
	digest := domain.CategoryDigest{
		Name:         name,
		ArticleCount: len(articles),
		Articles:     articles,
	}

	if len(articles) == 1 {
		// Synthesis across one item is meaningless; reuse the article's
		// own summary and skip the call.
		article := articles[0]
		digest.Synthesis = article.Summary
		if digest.Synthesis == "" {
			digest.Synthesis = fmt.Sprintf("One article from %s.", article.FeedName)
		}
		if len(article.KeyTakeaways) > 3 {
			digest.TopTakeaways = article.KeyTakeaways[:3]
		} else {
			digest.TopTakeaways = article.KeyTakeaways
		}
		return digest
	}

	response, err := b.client.Generate(ctx,
		categorySynthesisPrompt(name, articles), digestSynthesisSystem, categorySynthesisSchema)
	if err != nil {
		b.warn("category synthesis failed", "category", name, "error", err)
		digest.Synthesis = fmt.Sprintf("Today's %s coverage includes %d articles.", name, len(articles))
		for _, article := range articles {
			if len(digest.TopTakeaways) == 3 {
				break
			}
			if len(article.KeyTakeaways) > 0 {
				digest.TopTakeaways = append(digest.TopTakeaways, article.KeyTakeaways[0])
			}
		}
		return digest
	}

	digest.Synthesis = parsedString(response.Parsed, "synthesis")
	digest.TopTakeaways = parsedStrings(response.Parsed, "top_takeaways")
	return digest
}

// synthesizeOverall asks for cross-category themes; failure is non-fatal
// and leaves both lists empty.
func (b *DigestBuilder) synthesizeOverall(ctx context.Context, categories []domain.CategoryDigest) ([]string, []string) {
	if len(categories) == 0 {
		return nil, nil
	}

	response, err := b.client.Generate(ctx,
		overallSynthesisPrompt(categories), overallSynthesisSystem, overallSynthesisSchema)
	if err != nil {
		b.warn("overall synthesis failed", "error", err)
		return nil, nil
	}

	return parsedStrings(response.Parsed, "overall_themes"),
		parsedStrings(response.Parsed, "must_read_overall")
}

func (b *DigestBuilder) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *DigestBuilder) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
