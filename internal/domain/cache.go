package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// CacheKindSummary is the response-cache kind for per-article summaries.
const CacheKindSummary = "summary"

// SummaryCacheKey derives the cache key for an (article, model) pair.
// The model is part of the key so switching models naturally invalidates
// entries instead of serving stale output from a different model.
func SummaryCacheKey(articleID, model string) string {
	sum := sha256.Sum256([]byte(articleID + ":" + model))
	return hex.EncodeToString(sum[:])
}
