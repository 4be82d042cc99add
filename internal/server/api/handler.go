// Package api holds the HTTP handlers of the ingest service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"paperwatch/ingest/internal/cache"
	"paperwatch/ingest/internal/models"
	"paperwatch/ingest/internal/process"
	"paperwatch/ingest/internal/server/pagination"
	"paperwatch/ingest/internal/server/storage"
	"paperwatch/ingest/internal/translate"
)

const (
	defaultLimit      = 100
	maxLimit          = 1000
	similarLimit      = 10
	similarCacheTTL   = 10 * time.Minute
	maxRequestBodyLen = 1 << 20
)

// Syncer triggers ingestion work. Satisfied by process.Orchestrator.
type Syncer interface {
	SyncAll(ctx context.Context) process.SyncResult
	TestFeed(ctx context.Context, url string) *process.TestFeedResult
}

// Translator serves on-demand translation requests. Satisfied by
// translate.Manager.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) translate.Result
}

// Handler holds the dependencies of all API endpoints. Translator and Syncer
// may be nil; their endpoints then answer 503.
type Handler struct {
	repo         storage.ArticleRepository
	syncer       Syncer
	translator   Translator
	similarCache *cache.Cache[[]models.Article]
}

// NewHandler creates a handler instance.
func NewHandler(repo storage.ArticleRepository, syncer Syncer, translator Translator) *Handler {
	return &Handler{
		repo:         repo,
		syncer:       syncer,
		translator:   translator,
		similarCache: cache.New[[]models.Article](256),
	}
}

// ArticleListResponse is the paginated article listing.
type ArticleListResponse struct {
	Items      []models.Article `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// ListArticles handles GET /v1/articles with optional since, cursor,
// category_id, and feed_id filters.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	query := r.URL.Query()

	limit := defaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 || parsed > maxLimit {
			log.Warn().Str("limit", limitStr).Msg("Invalid 'limit' parameter")
			http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	q := storage.ArticleQuery{Limit: limit + 1} // one extra row decides next_cursor

	if cursorStr := query.Get("cursor"); cursorStr != "" {
		ts, id, err := pagination.Decode(cursorStr)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return
		}
		q.CursorTime, q.CursorID = &ts, &id
	} else if sinceStr := query.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			log.Warn().Str("since", sinceStr).Msg("Invalid 'since' parameter")
			http.Error(w, "Invalid 'since' parameter: use RFC3339 format (e.g., 2026-03-28T15:00:00Z)", http.StatusBadRequest)
			return
		}
		utc := since.UTC()
		q.Since = &utc
	}

	var parseErr bool
	q.CategoryID, parseErr = optionalInt64(w, query.Get("category_id"), "category_id")
	if parseErr {
		return
	}
	q.FeedID, parseErr = optionalInt64(w, query.Get("feed_id"), "feed_id")
	if parseErr {
		return
	}

	articles, err := h.repo.ListArticles(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list articles")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursor *string
	if len(articles) > limit {
		articles = articles[:limit]
		last := articles[len(articles)-1]
		cursor := pagination.Encode(last.CreatedAt.UTC(), last.ID)
		nextCursor = &cursor
	}

	writeJSON(w, log, http.StatusOK, ArticleListResponse{Items: articles, NextCursor: nextCursor})
}

// GetArticle handles GET /v1/articles/{id}, embedding the ordered author
// list.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	article, err := h.repo.GetArticle(r.Context(), id)
	if err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	authors, err := h.repo.ArticleAuthors(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("article_id", id).Msg("Failed to load authors")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, log, http.StatusOK, struct {
		*models.Article
		AuthorDetails []models.Author `json:"author_details"`
	}{article, authors})
}

// SimilarArticles handles GET /v1/articles/{id}/similar. Results are
// memoized briefly since similarity ranking reads several rows per call.
func (h *Handler) SimilarArticles(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cacheKey := "similar:" + strconv.FormatInt(id, 10)
	if cached, ok := h.similarCache.Get(cacheKey); ok {
		writeJSON(w, log, http.StatusOK, ArticleListResponse{Items: cached})
		return
	}

	similar, err := h.repo.SimilarArticles(r.Context(), id, similarLimit)
	if err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	h.similarCache.Set(cacheKey, similar, similarCacheTTL)
	writeJSON(w, log, http.StatusOK, ArticleListResponse{Items: similar})
}

// TriggerSync handles POST /v1/sync: it runs a full sync pass and returns the
// aggregate result. The run executes synchronously on the request.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if h.syncer == nil {
		http.Error(w, "Sync is not configured", http.StatusServiceUnavailable)
		return
	}

	log.Info().Msg("Sync triggered via API")
	result := h.syncer.SyncAll(r.Context())
	writeJSON(w, log, http.StatusOK, result)
}

type testFeedRequest struct {
	URL string `json:"url"`
}

// TestFeed handles POST /v1/feeds/test: a dry-run fetch+parse of a candidate
// feed URL with no persistence.
func (h *Handler) TestFeed(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if h.syncer == nil {
		http.Error(w, "Sync is not configured", http.StatusServiceUnavailable)
		return
	}

	var req testFeedRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		http.Error(w, "Missing required field: 'url'", http.StatusBadRequest)
		return
	}

	result := h.syncer.TestFeed(r.Context(), req.URL)
	writeJSON(w, log, http.StatusOK, result)
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
}

// TranslateText handles POST /v1/translate. The translation chain never
// fails outright, so the response is always 200 with the outcome inside.
func (h *Handler) TranslateText(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if h.translator == nil {
		http.Error(w, "Translation is not configured", http.StatusServiceUnavailable)
		return
	}

	var req translateRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		http.Error(w, "Missing required field: 'text'", http.StatusBadRequest)
		return
	}

	result := h.translator.Translate(r.Context(), req.Text, req.Source, req.Target)
	writeJSON(w, log, http.StatusOK, result)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid article id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func optionalInt64(w http.ResponseWriter, raw, name string) (*int64, bool) {
	if raw == "" {
		return nil, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		http.Error(w, fmt.Sprintf("Invalid '%s' parameter", name), http.StatusBadRequest)
		return nil, true
	}
	return &v, false
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen))
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, log *zerolog.Logger, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body")
	}
}
