// Package storage is the read side of the HTTP API. Queries are built with
// squirrel so optional filters compose without string concatenation.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"paperwatch/ingest/internal/database"
	"paperwatch/ingest/internal/models"
)

// ArticleQuery carries the optional filters and pagination state of a list
// request. CursorTime and CursorID must be set together.
type ArticleQuery struct {
	Limit      int
	Since      *time.Time
	CursorTime *time.Time
	CursorID   *int64
	CategoryID *int64
	FeedID     *int64
}

// ArticleRepository defines read operations for articles.
type ArticleRepository interface {
	ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	ArticleAuthors(ctx context.Context, articleID int64) ([]models.Author, error)
	SimilarArticles(ctx context.Context, articleID int64, limit int) ([]models.Article, error)
}

type sqlxRepository struct {
	db *database.DB
}

// NewRepository creates a repository backed by the given database.
func NewRepository(db *database.DB) ArticleRepository {
	return &sqlxRepository{db: db}
}

// ListArticles returns articles in stable (created_at, id) ascending order so
// cursor pagination never skips or repeats rows.
func (r *sqlxRepository) ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, error) {
	builder := sq.Select("*").
		From("articles").
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(q.Limit))

	if q.CursorTime != nil && q.CursorID != nil {
		builder = builder.Where(sq.Or{
			sq.Gt{"created_at": q.CursorTime.UTC()},
			sq.And{sq.Eq{"created_at": q.CursorTime.UTC()}, sq.Gt{"id": *q.CursorID}},
		})
	} else if q.Since != nil {
		builder = builder.Where(sq.Gt{"created_at": q.Since.UTC()})
	}
	if q.CategoryID != nil {
		builder = builder.Where(sq.Eq{"category_id": *q.CategoryID})
	}
	if q.FeedID != nil {
		builder = builder.Where(sq.Eq{"feed_id": *q.FeedID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	var articles []models.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Article{}, nil
		}
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return articles, nil
}

func (r *sqlxRepository) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	return r.db.GetArticle(ctx, id)
}

func (r *sqlxRepository) ArticleAuthors(ctx context.Context, articleID int64) ([]models.Author, error) {
	return r.db.ArticleAuthors(ctx, articleID)
}

// SimilarArticles finds articles related to the given one: same category or at
// least one shared keyword. Candidates are ranked by shared keyword count,
// then recency.
func (r *sqlxRepository) SimilarArticles(ctx context.Context, articleID int64, limit int) ([]models.Article, error) {
	source, err := r.db.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	conditions := sq.Or{}
	if source.CategoryID.Valid {
		conditions = append(conditions, sq.Eq{"category_id": source.CategoryID.Int64})
	}
	for _, kw := range source.Keywords {
		// Keywords persist as a JSON array, so a quoted substring match finds
		// exact keyword membership.
		conditions = append(conditions, sq.Like{"keywords": fmt.Sprintf(`%%"%s"%%`, strings.ReplaceAll(kw, `"`, ``))})
	}
	if len(conditions) == 0 {
		return []models.Article{}, nil
	}

	query, args, err := sq.Select("*").
		From("articles").
		Where(sq.NotEq{"id": articleID}).
		Where(conditions).
		OrderBy("published_at DESC").
		Limit(uint64(limit * 4)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build similar query: %w", err)
	}

	var candidates []models.Article
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("similar articles: %w", err)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		sa := sharedKeywords(source.Keywords, candidates[a].Keywords)
		sb := sharedKeywords(source.Keywords, candidates[b].Keywords)
		if sa != sb {
			return sa > sb
		}
		return candidates[a].PublishedAt.After(candidates[b].PublishedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if candidates == nil {
		candidates = []models.Article{}
	}
	return candidates, nil
}

func sharedKeywords(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, kw := range a {
		set[strings.ToLower(kw)] = struct{}{}
	}
	n := 0
	for _, kw := range b {
		if _, ok := set[strings.ToLower(kw)]; ok {
			n++
		}
	}
	return n
}
