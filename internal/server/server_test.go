package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"paperwatch/ingest/internal/database"
	"paperwatch/ingest/internal/models"
	"paperwatch/ingest/internal/server/api"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("empty key allows all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		apiKeyMiddleware("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing key rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		apiKeyMiddleware("secret")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		apiKeyMiddleware("secret")(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("correct key accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "secret")
		rec := httptest.NewRecorder()
		apiKeyMiddleware("secret")(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	db := newTestDB(t)
	mux := NewRouter(db, api.NewHandler(nil, nil, nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Errorf("body = %q, want OK", got)
	}
}

func TestExportFeedsCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	feed := models.NewFeed()
	feed.URL = "https://example.org/rss.xml"
	feed.Language.String, feed.Language.Valid = "en", true
	feed.SyncIntervalSecs = 600
	if err := db.InsertFeed(ctx, feed); err != nil {
		t.Fatalf("InsertFeed: %v", err)
	}

	mux := NewRouter(db, api.NewHandler(nil, nil, nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feeds", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header plus one row", len(lines))
	}
	if lines[0] != "url,format,language,active,sync_interval_secs" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "https://example.org/rss.xml,auto,en,true,600" {
		t.Errorf("row = %q", lines[1])
	}
}
