package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paperwatch/ingest/internal/models"
)

// InsertFeed inserts a new feed into the database and sets its ID.
func (db *DB) InsertFeed(ctx context.Context, feed *models.Feed) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO feeds (url, title, format, language, active, sync_interval_secs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		feed.URL,
		feed.Title,
		feed.Format,
		feed.Language,
		feed.Active,
		feed.SyncIntervalSecs,
		feed.CreatedAt.UTC(),
		feed.UpdatedAt.UTC(),
	).Scan(&feed.ID)
	if err != nil {
		return fmt.Errorf("insert feed %s: %w", feed.URL, err)
	}
	return nil
}

// StaleFeeds returns active feeds whose last sync is missing or older than the
// feed's staleness window at the given instant, oldest sync first. Feeds
// without their own sync interval use the fallback window.
func (db *DB) StaleFeeds(ctx context.Context, now time.Time, fallbackWindow time.Duration) ([]models.Feed, error) {
	var feeds []models.Feed
	err := db.SelectContext(ctx, &feeds, `
		SELECT * FROM feeds
		WHERE active = 1
		  AND (last_synced_at IS NULL
		       OR strftime('%s', ?) - strftime('%s', last_synced_at) >=
		          CASE WHEN sync_interval_secs > 0 THEN sync_interval_secs ELSE ? END)
		ORDER BY last_synced_at ASC, created_at ASC`,
		now.UTC(), int64(fallbackWindow.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("select stale feeds: %w", err)
	}
	return feeds, nil
}

// RecordFeedFailure increments the feed's consecutive error counter and stores
// the last error message. The failure does not stamp last_synced_at, so the
// feed stays eligible for the next run.
func (db *DB) RecordFeedFailure(ctx context.Context, feedID int64, lastError string) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		UPDATE feeds
		SET failures_count = failures_count + 1, last_error = ?, updated_at = ?
		WHERE id = ?`,
		lastError, now, feedID)
	if err != nil {
		return fmt.Errorf("record feed failure %d: %w", feedID, err)
	}
	return nil
}

// RecordFeedSuccess resets the error bookkeeping and stamps the sync time.
// A successful parse with zero new articles still counts as success.
func (db *DB) RecordFeedSuccess(ctx context.Context, feedID int64, title string, syncedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE feeds
		SET failures_count = 0, last_error = NULL, last_synced_at = ?, updated_at = ?,
		    title = COALESCE(NULLIF(?, ''), title)
		WHERE id = ?`,
		syncedAt.UTC(), time.Now().UTC(), title, feedID)
	if err != nil {
		return fmt.Errorf("record feed success %d: %w", feedID, err)
	}
	return nil
}

// InsertArticle inserts an article unless one with the same (feed_id,
// external_id) already exists. The UNIQUE constraint makes the
// check-then-insert atomic; a conflict is reported as inserted=false, never as
// an error. On insert the article's ID is set.
func (db *DB) InsertArticle(ctx context.Context, article *models.Article) (bool, error) {
	err := db.QueryRowContext(ctx, `
		INSERT INTO articles (feed_id, external_id, title, abstract, url, doi,
		                      authors, keywords, published_at, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(feed_id, external_id) DO NOTHING
		RETURNING id`,
		article.FeedID,
		article.ExternalID,
		article.Title,
		article.Abstract,
		article.URL,
		article.DOI,
		article.Authors,
		article.Keywords,
		article.PublishedAt.UTC(),
		article.CategoryID,
		article.CreatedAt.UTC(),
	).Scan(&article.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert article %s: %w", article.ExternalID, err)
	}
	return true, nil
}

// ArticleExists reports whether an article with the dedup key is present.
func (db *DB) ArticleExists(ctx context.Context, feedID int64, externalID string) (bool, error) {
	var n int
	err := db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM articles WHERE feed_id = ? AND external_id = ?",
		feedID, externalID)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return n > 0, nil
}

// UpsertAuthor inserts the author or, when the normalized name already exists,
// increments its running article count. Returns the author's row ID.
func (db *DB) UpsertAuthor(ctx context.Context, name, normalizedName string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO authors (name, normalized_name, article_count)
		VALUES (?, ?, 1)
		ON CONFLICT(normalized_name) DO UPDATE SET article_count = article_count + 1
		RETURNING id`,
		name, normalizedName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert author %q: %w", normalizedName, err)
	}
	return id, nil
}

// LinkArticleAuthor creates the ordered article-author join row.
func (db *DB) LinkArticleAuthor(ctx context.Context, articleID, authorID int64, position int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO article_authors (article_id, author_id, position)
		VALUES (?, ?, ?)
		ON CONFLICT(article_id, author_id) DO NOTHING`,
		articleID, authorID, position)
	if err != nil {
		return fmt.Errorf("link article %d author %d: %w", articleID, authorID, err)
	}
	return nil
}

// EnsureCategory returns the ID for the category slug, creating the row the
// first time the classifier assigns it.
func (db *DB) EnsureCategory(ctx context.Context, name, slug, description string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET name = name
		RETURNING id`,
		name, slug, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure category %q: %w", slug, err)
	}
	return id, nil
}

// GetFeed loads a single feed by ID.
func (db *DB) GetFeed(ctx context.Context, id int64) (*models.Feed, error) {
	var feed models.Feed
	if err := db.GetContext(ctx, &feed, "SELECT * FROM feeds WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get feed %d: %w", id, err)
	}
	return &feed, nil
}

// GetArticle loads a single article by ID.
func (db *DB) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	var article models.Article
	if err := db.GetContext(ctx, &article, "SELECT * FROM articles WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &article, nil
}

// ArticleAuthors returns the authors of an article in authorship order.
func (db *DB) ArticleAuthors(ctx context.Context, articleID int64) ([]models.Author, error) {
	var authors []models.Author
	err := db.SelectContext(ctx, &authors, `
		SELECT a.* FROM authors a
		JOIN article_authors aa ON aa.author_id = a.id
		WHERE aa.article_id = ?
		ORDER BY aa.position ASC`,
		articleID)
	if err != nil {
		return nil, fmt.Errorf("article authors %d: %w", articleID, err)
	}
	return authors, nil
}
