package domain

import "time"

// SummaryResult is the outcome of summarizing a single article.
type SummaryResult struct {
	Success      bool
	ArticleID    string
	Summary      string
	KeyTakeaways []string
	ActionItems  []string
	TokensUsed   int
	Cached       bool
	Error        string
}

// CategoryDigest groups summarized articles sharing a category label.
// Articles are referenced, not copied; the store remains their owner.
type CategoryDigest struct {
	Name         string
	ArticleCount int
	Articles     []Article
	Synthesis    string
	TopTakeaways []string
}

// DailyDigest is the complete, build-once digest for one run.
type DailyDigest struct {
	ID                    string
	Date                  time.Time
	Categories            []CategoryDigest
	TotalArticles         int
	TotalFeeds            int
	ProcessingTimeSeconds float64

	OverallThemes []string
	MustRead      []string
}

// AnalysisResult reports one run of the summarize-and-digest stage.
type AnalysisResult struct {
	Digest           *DailyDigest
	ArticlesAnalyzed int
	TokensUsed       int
	CostEstimateUSD  float64
	DurationSeconds  float64
	Errors           []string
}

// CacheStats summarizes response-cache occupancy.
type CacheStats struct {
	Total   int
	Expired int
}
