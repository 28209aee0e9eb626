package delivery

import (
	"context"
	"strings"
	"testing"
	"time"

	"feedagent/internal/domain"
)

func sampleDigest() domain.DailyDigest {
	return domain.DailyDigest{
		ID:   "abc12345",
		Date: time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC),
		Categories: []domain.CategoryDigest{
			{
				Name:         "Tech",
				ArticleCount: 1,
				Synthesis:    "One big launch.",
				TopTakeaways: []string{"shipping matters"},
				Articles: []domain.Article{{
					Title:    "Launch Day",
					URL:      "https://e.com/launch",
					FeedName: "Example Blog",
				}},
			},
		},
		TotalArticles:         1,
		TotalFeeds:            1,
		OverallThemes:         []string{"launches"},
		MustRead:              []string{"https://e.com/launch"},
		ProcessingTimeSeconds: 2.5,
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	text := Render(sampleDigest())

	for _, want := range []string{
		"Daily Digest - August 28, 2026",
		"1 articles from 1 sources",
		"Today's Themes",
		"Tech (1 articles)",
		"One big launch.",
		"* shipping matters",
		"Launch Day (Example Blog)",
		"https://e.com/launch",
		"Must Read",
		"Generated in 2.5s",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered digest missing %q:\n%s", want, text)
		}
	}
}

func TestConsoleSinkDeliver(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	sink := NewConsoleSink(&buf)

	if err := sink.Deliver(context.Background(), sampleDigest()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.Contains(buf.String(), "Daily Digest") {
		t.Fatal("nothing was written to the sink")
	}
}
