// Package delivery contains digest sinks. The only built-in sink renders
// the digest as plain text on a writer; richer transports implement the
// same port elsewhere.
package delivery

import (
	"context"
	"fmt"
	"io"
	"strings"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// ConsoleSink renders a digest as plain text to a writer.
type ConsoleSink struct {
	out io.Writer
}

var _ ports.DigestSink = (*ConsoleSink)(nil)

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Deliver writes a text rendering of the digest.
func (s *ConsoleSink) Deliver(_ context.Context, digest domain.DailyDigest) error {
	_, err := io.WriteString(s.out, Render(digest))
	return err
}

// Render produces the plain-text form of a digest.
func Render(digest domain.DailyDigest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily Digest - %s\n", digest.Date.Format("January 2, 2006"))
	fmt.Fprintf(&b, "%d articles from %d sources\n\n", digest.TotalArticles, digest.TotalFeeds)

	if len(digest.OverallThemes) > 0 {
		b.WriteString("Today's Themes\n")
		for _, theme := range digest.OverallThemes {
			fmt.Fprintf(&b, "  - %s\n", theme)
		}
		b.WriteString("\n")
	}

	for _, category := range digest.Categories {
		fmt.Fprintf(&b, "%s (%d articles)\n", category.Name, category.ArticleCount)
		if category.Synthesis != "" {
			fmt.Fprintf(&b, "  %s\n", category.Synthesis)
		}
		for _, takeaway := range category.TopTakeaways {
			fmt.Fprintf(&b, "  * %s\n", takeaway)
		}
		for _, article := range category.Articles {
			fmt.Fprintf(&b, "  - %s (%s)\n", article.Title, article.FeedName)
			fmt.Fprintf(&b, "    %s\n", article.URL)
		}
		b.WriteString("\n")
	}

	if len(digest.MustRead) > 0 {
		b.WriteString("Must Read\n")
		for _, url := range digest.MustRead {
			fmt.Fprintf(&b, "  %s\n", url)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Generated in %.1fs\n", digest.ProcessingTimeSeconds)
	return b.String()
}
