// Package process drives the sync run: it selects stale feeds, fetches and
// parses them, extracts and deduplicates items, classifies new articles, and
// persists the article/author graph while tracking per-feed health.
package process

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"paperwatch/ingest/internal/cache"
	"paperwatch/ingest/internal/classify"
	"paperwatch/ingest/internal/database"
	"paperwatch/ingest/internal/extractor"
	"paperwatch/ingest/internal/models"
	"paperwatch/ingest/internal/translate"
)

const (
	userAgent       = "PaperWatch/1.0"
	maxFeedBytes    = 10 << 20
	defaultFetchTTL = 30 * time.Second
)

// Config tunes an Orchestrator.
type Config struct {
	// WorkerCount bounds concurrent feed syncs; 0 means runtime.NumCPU().
	WorkerCount int
	// FetchTimeout bounds a single feed fetch+parse.
	FetchTimeout time.Duration
	// HTTPConcurrency caps outstanding fetches across all workers so source
	// servers are not overwhelmed; 0 means WorkerCount.
	HTTPConcurrency int
	// StalenessWindow is the eligibility window for feeds without their own
	// sync interval; 0 makes such feeds eligible on every run.
	StalenessWindow time.Duration
}

// Orchestrator coordinates one or more sync runs over the feed table. Two
// workers never process the same feed: each eligible feed is queued exactly
// once per run.
type Orchestrator struct {
	db           *database.DB
	classifier   *classify.Engine
	translator   *translate.Manager
	payloadCache *cache.Cache[[]byte]
	client       *http.Client
	WorkerCount  int
	fetchTimeout time.Duration
	staleness    time.Duration
	httpSem      chan struct{}
}

// SyncResult is the aggregate outcome of one run. Per-feed failures are
// collected as strings, never raised: a broken feed must not abort the run.
type SyncResult struct {
	TotalArticles  int      `json:"total_articles"`
	FeedsProcessed int      `json:"feeds_processed"`
	Errors         []string `json:"errors"`
}

// NewOrchestrator creates an orchestrator using an existing database
// connection. classifier and translator may be nil; articles then persist
// uncategorized with untouched abstracts.
func NewOrchestrator(db *database.DB, classifier *classify.Engine, translator *translate.Manager, cfg Config) (*Orchestrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database connection is not valid: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTTL
	}
	if cfg.HTTPConcurrency <= 0 {
		cfg.HTTPConcurrency = cfg.WorkerCount
	}

	return &Orchestrator{
		db:           db,
		classifier:   classifier,
		translator:   translator,
		payloadCache: cache.New[[]byte](64),
		client:       &http.Client{Timeout: cfg.FetchTimeout},
		WorkerCount:  cfg.WorkerCount,
		fetchTimeout: cfg.FetchTimeout,
		staleness:    cfg.StalenessWindow,
		httpSem:      make(chan struct{}, cfg.HTTPConcurrency),
	}, nil
}

type feedOutcome struct {
	added int
	err   error
}

// SyncAll processes every stale feed once and returns the aggregate result.
// Cancellation is cooperative: once ctx expires no new feed sync starts, but
// feeds already in flight finish or time out individually.
func (o *Orchestrator) SyncAll(ctx context.Context) SyncResult {
	var result SyncResult

	feeds, err := o.db.StaleFeeds(ctx, time.Now(), o.staleness)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stale feeds")
		result.Errors = append(result.Errors, fmt.Sprintf("load feeds: %v", err))
		return result
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	log.Info().Int("stale_feeds", len(feeds)).Msg("Starting sync run")
	if len(feeds) == 0 {
		return result
	}

	feedQueue := make(chan models.Feed)
	outcomes := make(chan feedOutcome)

	var workerWg sync.WaitGroup
	for i := 0; i < o.WorkerCount; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for feed := range feedQueue {
				added, err := o.syncFeed(ctx, feed)
				outcomes <- feedOutcome{added: added, err: err}
			}
		}()
	}

	go func() {
	feedLoop:
		for _, feed := range feeds {
			select {
			case feedQueue <- feed:
			case <-ctx.Done():
				log.Info().Err(ctx.Err()).Msg("Context cancelled, not starting further feed syncs")
				break feedLoop
			}
		}
		close(feedQueue)
		workerWg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		result.FeedsProcessed++
		result.TotalArticles += outcome.added
		if outcome.err != nil {
			result.Errors = append(result.Errors, outcome.err.Error())
		}
	}

	log.Info().
		Int("feeds_processed", result.FeedsProcessed).
		Int("articles_added", result.TotalArticles).
		Int("errors", len(result.Errors)).
		Msg("Sync run finished")
	return result
}

// syncFeed runs the full pipeline for one feed. Item-level errors are logged
// and skipped; only fetch/parse failures bubble up, after being recorded on
// the feed row.
func (o *Orchestrator) syncFeed(ctx context.Context, feed models.Feed) (int, error) {
	log.Debug().Int64("feed_id", feed.ID).Str("url", feed.URL).Msg("Syncing feed")

	parsed, fetchErr := o.fetchAndParse(ctx, feed.URL)
	if fetchErr != nil {
		if err := o.db.RecordFeedFailure(ctx, feed.ID, fetchErr.Error()); err != nil {
			log.Error().Err(err).Int64("feed_id", feed.ID).Msg("Failed to record feed failure")
		}
		return 0, fmt.Errorf("feed %d (%s): %v", feed.ID, feed.URL, fetchErr)
	}

	added := 0
	for _, item := range parsed.Items {
		inserted, err := o.processItem(ctx, &feed, item)
		if err != nil {
			log.Warn().
				Err(err).
				Int64("feed_id", feed.ID).
				Str("item_title", item.Title).
				Msg("Skipping item")
			continue
		}
		if inserted {
			added++
		}
	}

	// Zero new articles is still a successful sync.
	if err := o.db.RecordFeedSuccess(ctx, feed.ID, parsed.Title, time.Now()); err != nil {
		log.Error().Err(err).Int64("feed_id", feed.ID).Msg("Failed to record feed success")
	}

	log.Info().
		Int64("feed_id", feed.ID).
		Int("items", len(parsed.Items)).
		Int("added", added).
		Msg("Feed synced")
	return added, nil
}

// processItem extracts, deduplicates, classifies, and persists one feed item
// together with its ordered author links. The dedup check runs before
// classification so stored items never cost a translation or embedding call;
// the insert's conflict handling stays as the atomic backstop for concurrent
// writers.
func (o *Orchestrator) processItem(ctx context.Context, feed *models.Feed, item *gofeed.Item) (bool, error) {
	rec := extractor.Extract(item)

	exists, err := o.db.ArticleExists(ctx, feed.ID, rec.ExternalID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	article := models.NewArticle()
	article.FeedID = feed.ID
	article.ExternalID = rec.ExternalID
	article.Title = rec.Title
	article.Abstract = rec.Abstract
	article.URL = rec.URL
	article.PublishedAt = rec.PublishedAt
	article.Authors = rec.Authors
	article.Keywords = rec.Keywords
	if rec.DOI != "" {
		article.DOI.String, article.DOI.Valid = rec.DOI, true
	}

	if o.classifier != nil {
		if res := o.classifier.Classify(ctx, rec.Title, rec.Abstract, rec.Keywords); res != nil {
			description := ""
			name := res.Category.Name
			if seed, ok := o.classifier.SeedBySlug(res.Category.Slug); ok {
				description = seed.Description
				name = seed.Name
			}
			categoryID, err := o.db.EnsureCategory(ctx, name, res.Category.Slug, description)
			if err != nil {
				// Classification is best-effort; the article persists without it.
				log.Warn().Err(err).Str("slug", res.Category.Slug).Msg("Failed to ensure category")
			} else {
				article.CategoryID.Int64, article.CategoryID.Valid = categoryID, true
			}
		}
	}

	inserted, err := o.db.InsertArticle(ctx, article)
	if err != nil {
		return false, err
	}
	if !inserted {
		// Same (feed_id, external_id) already stored: idempotent re-sync.
		return false, nil
	}

	// Extraction dedups authors case-sensitively, so two raw spellings can
	// still share a normalized name; each name counts once per article.
	linked := make(map[string]bool, len(rec.Authors))
	for i, name := range rec.Authors {
		normalized := models.NormalizeAuthorName(name)
		if normalized == "" || linked[normalized] {
			continue
		}
		linked[normalized] = true
		authorID, err := o.db.UpsertAuthor(ctx, name, normalized)
		if err != nil {
			log.Warn().Err(err).Str("author", name).Msg("Failed to upsert author")
			continue
		}
		if err := o.db.LinkArticleAuthor(ctx, article.ID, authorID, i+1); err != nil {
			log.Warn().Err(err).Str("author", name).Msg("Failed to link author")
		}
	}

	return true, nil
}

// fetchAndParse downloads and parses a feed document. The semaphore caps
// outstanding fetches across all workers; the per-fetch context enforces the
// timeout and stays cancellable from the run context.
func (o *Orchestrator) fetchAndParse(ctx context.Context, url string) (*gofeed.Feed, error) {
	select {
	case o.httpSem <- struct{}{}:
		defer func() { <-o.httpSem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return parsed, nil
}
