package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// ResponseCache is a TTL-keyed cache for expensive LLM calls, backed by
// the same embedded database as the article store.
type ResponseCache struct {
	db             *sql.DB
	defaultTTLDays int
}

var _ ports.ResponseCache = (*ResponseCache)(nil)

// NewResponseCache wires the cache table with a default TTL in days.
func NewResponseCache(db *sql.DB, defaultTTLDays int) *ResponseCache {
	if defaultTTLDays <= 0 {
		defaultTTLDays = 7
	}
	return &ResponseCache{db: db, defaultTTLDays: defaultTTLDays}
}

// Get returns the cached value for (kind, key). Expired rows are filtered
// in the query itself: correctness never waits for physical cleanup.
func (c *ResponseCache) Get(ctx context.Context, kind, key string) (json.RawMessage, bool, error) {
	query, args, err := sq.Select("value").
		From("cache").
		Where(sq.Eq{"kind": kind, "key": key}).
		Where(sq.Gt{"expires_at": nowRFC3339()}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build cache query: %w", err)
	}

	var value string
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s/%s: %w", kind, key, err)
	}
	return json.RawMessage(value), true, nil
}

// Set stores a JSON-serializable value with a TTL, overwriting existing
// entries, then piggybacks a lazy sweep of expired rows. Cache growth is
// bounded by run frequency, so cleanup on the write path is enough.
func (c *ResponseCache) Set(ctx context.Context, kind, key string, value any, ttlDays int) error {
	// Zero means "use the default"; a negative TTL writes an already
	// expired row, which Get will never return.
	if ttlDays == 0 {
		ttlDays = c.defaultTTLDays
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	expiresAt := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (kind, key, value, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		kind, key, string(encoded), nowRFC3339(), expiresAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache set %s/%s: %w", kind, key, err)
	}

	// The sweep is housekeeping; a sweep failure must not mask the
	// committed write above.
	_, _ = c.db.ExecContext(ctx, `DELETE FROM cache WHERE expires_at <= ?`, nowRFC3339())
	return nil
}

// Clear deletes cached entries, optionally scoped to one kind, and
// returns the number of rows removed.
func (c *ResponseCache) Clear(ctx context.Context, kind string) (int64, error) {
	builder := sq.Delete("cache")
	if kind != "" {
		builder = builder.Where(sq.Eq{"kind": kind})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cache delete: %w", err)
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports total and already-expired entry counts.
func (c *ResponseCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	var stats domain.CacheStats

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache`).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache WHERE expires_at <= ?`, nowRFC3339()).Scan(&stats.Expired); err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}
