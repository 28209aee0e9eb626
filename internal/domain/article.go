package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ArticleStatus enumerates processing milestones in the pipeline.
type ArticleStatus string

const (
	StatusPending    ArticleStatus = "pending"
	StatusProcessing ArticleStatus = "processing"
	StatusSummarized ArticleStatus = "summarized"
	StatusFailed     ArticleStatus = "failed"
	StatusSkipped    ArticleStatus = "skipped"
)

// Article is a core entity describing a newsletter article pulled from a feed.
type Article struct {
	ID        string
	URL       string
	Title     string
	Author    string
	FeedName  string
	FeedURL   string
	Published time.Time
	Content   string
	WordCount int
	Category  string
	Status    ArticleStatus

	// Populated after analysis.
	Summary      string
	KeyTakeaways []string
	ActionItems  []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticleID derives the canonical identifier for an article from its URL.
// The mapping is deterministic across runs so that re-ingesting the same
// URL dedupes at the store level.
func ArticleID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}
