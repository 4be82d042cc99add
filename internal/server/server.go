// Package server wires the HTTP API: article reads, sync triggers, feed
// probes, and on-demand translation.
package server

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"paperwatch/ingest/internal/database"
	"paperwatch/ingest/internal/server/api"
	"paperwatch/ingest/internal/server/storage"
)

// apiKeyMiddleware checks the X-API-Key header against the configured key.
// An empty key disables the check.
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			reqAPIKey := r.Header.Get("X-API-Key")
			if reqAPIKey == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}
			if reqAPIKey != apiKey {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter builds the full route table around the given handler and
// database. Split out of RunServer so tests can drive it with httptest.
func NewRouter(db *database.DB, handler *api.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/articles", handler.ListArticles)
	mux.HandleFunc("GET /v1/articles/{id}", handler.GetArticle)
	mux.HandleFunc("GET /v1/articles/{id}/similar", handler.SimilarArticles)
	mux.HandleFunc("POST /v1/sync", handler.TriggerSync)
	mux.HandleFunc("POST /v1/feeds/test", handler.TestFeed)
	mux.HandleFunc("POST /v1/translate", handler.TranslateText)
	mux.HandleFunc("GET /v1/feeds", exportFeedsHandler(db))
	mux.HandleFunc("GET /health", healthCheckHandler(db))
	return mux
}

// RunServer starts the HTTP server with graceful shutdown support.
func RunServer(db *database.DB, listenAddr string, logger zerolog.Logger, apiKey string, syncer api.Syncer, translator api.Translator) error {
	logger = logger.With().Str("service", "paperwatch-api").Logger()

	handler := api.NewHandler(storage.NewRepository(db), syncer, translator)
	mux := NewRouter(db, handler)

	// Middleware chain for logging and request tracking.
	h := hlog.NewHandler(logger)(mux)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		idReq, _ := hlog.IDFromRequest(r)

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("req_id", idReq.String()).
			Msg("HTTP Request")
	})(h)

	if apiKey != "" {
		h = apiKeyMiddleware(apiKey)(h)
		logger.Info().Msg("API key authentication enabled")
	} else {
		logger.Info().Msg("API key authentication disabled")
	}

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Sync runs execute on the request, so writes get a generous bound.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", listenAddr).Msg("API Server starting")
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatal().Err(err).Msg("Server failed to start")

	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			if err := httpServer.Close(); err != nil {
				logger.Error().Err(err).Msg("HTTP server force close error")
			}
		} else {
			logger.Info().Msg("HTTP server shutdown complete.")
		}
		if err := <-serverErr; err != nil {
			logger.Error().Err(err).Msg("ListenAndServe error during shutdown")
		}
	}

	logger.Info().Msg("Server exiting.")
	return nil
}

// healthCheckHandler answers monitoring probes, checking database liveness.
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		if err := db.PingContext(r.Context()); err != nil {
			log.Error().Err(err).Msg("Health check database ping failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("Error writing health check response")
		}
	}
}

// exportFeedsHandler dumps the feed table as CSV in the same column layout
// the importer accepts, so an export can seed another instance.
func exportFeedsHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		rows, err := db.QueryContext(r.Context(), `
			SELECT url, format, COALESCE(language, ''), active, sync_interval_secs
			FROM feeds
			ORDER BY id ASC`)
		if err != nil {
			log.Error().Err(err).Msg("Failed to query feeds")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=feeds.csv")

		csvWriter := csv.NewWriter(w)
		if err := csvWriter.Write([]string{"url", "format", "language", "active", "sync_interval_secs"}); err != nil {
			log.Error().Err(err).Msg("Failed to write CSV header")
			http.Error(w, "Error generating CSV", http.StatusInternalServerError)
			return
		}

		var count int
		for rows.Next() {
			var url, format, language string
			var active bool
			var interval int64
			if err := rows.Scan(&url, &format, &language, &active, &interval); err != nil {
				log.Error().Err(err).Msg("Failed to scan feed row")
				continue
			}

			record := []string{
				url,
				format,
				language,
				strconv.FormatBool(active),
				strconv.FormatInt(interval, 10),
			}
			if err := csvWriter.Write(record); err != nil {
				log.Error().Err(err).Msg("Failed to write CSV record")
				return
			}
			count++
		}
		if err := rows.Err(); err != nil {
			log.Error().Err(err).Msg("Error iterating feed rows")
			return
		}

		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			log.Error().Err(err).Msg("Error flushing CSV data")
			return
		}

		log.Info().Int("feed_count", count).Msg("Exported feeds as CSV")
	}
}
