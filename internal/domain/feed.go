package domain

// FeedRequest carries all parameters required to fetch one feed.
type FeedRequest struct {
	URL           string
	Name          string
	Category      string
	LookbackHours int
	MaxArticles   int
}

// FeedFetchResult is the outcome of fetching a single feed. It is consumed
// once by the ingestion coordinator and never persisted. Fetch failures
// travel inside the result, not as errors, so one bad feed cannot abort
// sibling fetches.
type FeedFetchResult struct {
	FeedURL  string
	FeedName string
	Articles []Article
	Success  bool
	Error    string

	StatusCode     int
	FinalURL       string
	ContentType    string
	Attempts       int
	ResponseTimeMS float64
	EntryCount     int

	// Bozo marks a malformed-but-partially-parseable feed document.
	// Success and Bozo are reported independently; strictness policy is
	// the caller's call.
	Bozo            bool
	BozoExplanation string
}

// IngestResult aggregates one ingestion run across all configured feeds.
type IngestResult struct {
	FeedsChecked    int
	FeedsSucceeded  int
	FeedsFailed     int
	ArticlesFound   int
	ArticlesNew     int
	Errors          []string
	DurationSeconds float64
}
