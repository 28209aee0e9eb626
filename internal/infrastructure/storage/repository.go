package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/araddon/dateparse"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

// SQLiteRepository persists deduplicated articles in the embedded database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires a sql.DB opened via Open.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// InsertIfAbsent inserts the article unless its URL is already known.
// A single conditional insert keeps the at-most-once guarantee under
// concurrent callers; the boolean reports whether the row was new.
func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, article domain.Article) (bool, error) {
	takeaways, err := json.Marshal(orEmpty(article.KeyTakeaways))
	if err != nil {
		return false, fmt.Errorf("marshal takeaways: %w", err)
	}
	actions, err := json.Marshal(orEmpty(article.ActionItems))
	if err != nil {
		return false, fmt.Errorf("marshal actions: %w", err)
	}

	status := article.Status
	if status == "" {
		status = domain.StatusPending
	}

	query, args, err := sq.Insert("articles").
		Options("OR IGNORE").
		Columns("id", "url", "title", "author", "feed_name", "feed_url",
			"published", "content", "word_count", "category", "status",
			"summary", "key_takeaways", "action_items").
		Values(article.ID, article.URL, article.Title, article.Author,
			article.FeedName, article.FeedURL,
			article.Published.UTC().Format(time.RFC3339),
			article.Content, article.WordCount, article.Category, string(status),
			article.Summary, string(takeaways), string(actions)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article %s: %w", article.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetPending returns articles awaiting summarization, most recent first.
func (r *SQLiteRepository) GetPending(ctx context.Context, limit int) ([]domain.Article, error) {
	builder := articleSelect().
		Where(sq.Eq{"status": string(domain.StatusPending)}).
		OrderBy("published DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.queryArticles(ctx, builder)
}

// GetSince returns articles published at or after the given time, most
// recent first, optionally filtered by status.
func (r *SQLiteRepository) GetSince(ctx context.Context, since time.Time, status *domain.ArticleStatus) ([]domain.Article, error) {
	builder := articleSelect().
		Where(sq.GtOrEq{"published": since.UTC().Format(time.RFC3339)}).
		OrderBy("published DESC")
	if status != nil {
		builder = builder.Where(sq.Eq{"status": string(*status)})
	}
	return r.queryArticles(ctx, builder)
}

// UpdateSummary stores the analysis result and moves the article to
// summarized.
func (r *SQLiteRepository) UpdateSummary(ctx context.Context, id, summary string, takeaways, actions []string) error {
	takeawaysJSON, err := json.Marshal(orEmpty(takeaways))
	if err != nil {
		return fmt.Errorf("marshal takeaways: %w", err)
	}
	actionsJSON, err := json.Marshal(orEmpty(actions))
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	query, args, err := sq.Update("articles").
		Set("summary", summary).
		Set("key_takeaways", string(takeawaysJSON)).
		Set("action_items", string(actionsJSON)).
		Set("status", string(domain.StatusSummarized)).
		Set("updated_at", nowRFC3339()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update summary %s: %w", id, err)
	}
	return nil
}

// UpdateStatus sets the processing status. Re-applying the current status
// is a no-op, not an error.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus) error {
	query, args, err := sq.Update("articles").
		Set("status", string(status)).
		Set("updated_at", nowRFC3339()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update status %s: %w", id, err)
	}
	return nil
}

// UpsertFeedStatus tracks per-feed fetch health. Successes reset the
// failure streak, failures extend it.
func (r *SQLiteRepository) UpsertFeedStatus(ctx context.Context, feedURL, feedName string, ok bool, errMsg string) error {
	now := nowRFC3339()

	var query string
	var args []any
	if ok {
		query = `INSERT INTO feed_status (feed_url, feed_name, last_checked, last_success, consecutive_failures)
			VALUES (?, ?, ?, ?, 0)
			ON CONFLICT(feed_url) DO UPDATE SET
				feed_name = excluded.feed_name,
				last_checked = excluded.last_checked,
				last_success = excluded.last_success,
				consecutive_failures = 0`
		args = []any{feedURL, feedName, now, now}
	} else {
		query = `INSERT INTO feed_status (feed_url, feed_name, last_checked, last_error, consecutive_failures)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT(feed_url) DO UPDATE SET
				feed_name = excluded.feed_name,
				last_checked = excluded.last_checked,
				last_error = excluded.last_error,
				consecutive_failures = consecutive_failures + 1`
		args = []any{feedURL, feedName, now, errMsg}
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert feed status %s: %w", feedURL, err)
	}
	return nil
}

func articleSelect() sq.SelectBuilder {
	return sq.Select("id", "url", "title", "author", "feed_name", "feed_url",
		"published", "content", "word_count", "category", "status",
		"summary", "key_takeaways", "action_items", "created_at", "updated_at").
		From("articles")
}

func (r *SQLiteRepository) queryArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

func scanArticle(rows *sql.Rows) (domain.Article, error) {
	var (
		article                         domain.Article
		published, createdAt, updatedAt string
		summary                         sql.NullString
		takeawaysJSON, actionsJSON      sql.NullString
	)

	err := rows.Scan(&article.ID, &article.URL, &article.Title, &article.Author,
		&article.FeedName, &article.FeedURL, &published, &article.Content,
		&article.WordCount, &article.Category, (*string)(&article.Status),
		&summary, &takeawaysJSON, &actionsJSON, &createdAt, &updatedAt)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	article.Summary = summary.String
	article.Published = parseStoredTime(published)
	article.CreatedAt = parseStoredTime(createdAt)
	article.UpdatedAt = parseStoredTime(updatedAt)

	if takeawaysJSON.Valid && takeawaysJSON.String != "" {
		if err := json.Unmarshal([]byte(takeawaysJSON.String), &article.KeyTakeaways); err != nil {
			return domain.Article{}, fmt.Errorf("decode takeaways for %s: %w", article.ID, err)
		}
	}
	if actionsJSON.Valid && actionsJSON.String != "" {
		if err := json.Unmarshal([]byte(actionsJSON.String), &article.ActionItems); err != nil {
			return domain.Article{}, fmt.Errorf("decode actions for %s: %w", article.ID, err)
		}
	}

	return article, nil
}

func parseStoredTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if parsed, err := dateparse.ParseAny(value); err == nil {
		return parsed.UTC()
	}
	return time.Time{}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
