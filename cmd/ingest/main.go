package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"paperwatch/ingest/internal/cache"
	"paperwatch/ingest/internal/classify"
	"paperwatch/ingest/internal/config"
	"paperwatch/ingest/internal/database"
	"paperwatch/ingest/internal/importfeeds"
	"paperwatch/ingest/internal/process"
	"paperwatch/ingest/internal/server"
	"paperwatch/ingest/internal/translate"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func usage() {
	fmt.Println("Usage: ingest [command] [options]")
	fmt.Println("Commands: import, sync, server, test-feed")
	fmt.Println("\nFor command-specific options, use: ingest [command] -h")
}

func main() {
	cfg := config.DefaultConfig()

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importCmd.StringVar(&cfg.FeedsCSVPath, "csv", cfg.FeedsCSVPath,
		"Path to the feeds CSV file (env: PAPERWATCH_CSV_PATH)")
	importCmd.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: PAPERWATCH_DB_PATH)")
	var importReset bool
	importCmd.BoolVar(&importReset, "reset", false,
		"Delete an existing database before importing")
	var importLogLevel string
	importCmd.StringVar(&importLogLevel, "log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: PAPERWATCH_LOG_LEVEL)")

	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	syncCmd.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: PAPERWATCH_DB_PATH)")
	var intervalMinutes int
	syncCmd.IntVar(&intervalMinutes, "interval", int(cfg.RunInterval.Minutes()),
		"Interval in minutes between sync runs, 0 for one-shot mode")
	syncCmd.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount,
		"Number of worker goroutines, 0 for CPU count")
	var syncLogLevel string
	syncCmd.StringVar(&syncLogLevel, "log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: PAPERWATCH_LOG_LEVEL)")

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	serverCmd.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: PAPERWATCH_DB_PATH)")
	serverCmd.StringVar(&cfg.ServerHost, "host", cfg.ServerHost,
		"Host to bind the server to")
	serverCmd.IntVar(&cfg.ServerPort, "port", cfg.ServerPort,
		"Port to listen on")
	var serverLogLevel string
	serverCmd.StringVar(&serverLogLevel, "log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: PAPERWATCH_LOG_LEVEL)")

	testFeedCmd := flag.NewFlagSet("test-feed", flag.ExitOnError)
	var testFeedURL string
	testFeedCmd.StringVar(&testFeedURL, "url", "", "Feed URL to probe (required)")
	testFeedCmd.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: PAPERWATCH_DB_PATH)")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		importCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, importLogLevel)

		if err := runImport(cfg, importReset); err != nil {
			log.Error().Err(err).Msg("Import failed")
			os.Exit(1)
		}

	case "sync":
		syncCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, syncLogLevel)
		cfg.RunInterval = time.Duration(intervalMinutes) * time.Minute

		if err := runSync(cfg); err != nil {
			log.Error().Err(err).Msg("Sync failed")
			os.Exit(1)
		}

	case "server":
		serverCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, serverLogLevel)

		if err := runServer(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}

	case "test-feed":
		testFeedCmd.Parse(os.Args[2:])
		if testFeedURL == "" {
			fmt.Println("Usage: ingest test-feed -url <feed-url>")
			os.Exit(1)
		}

		if err := runTestFeed(cfg, testFeedURL); err != nil {
			log.Error().Err(err).Msg("Feed test failed")
			os.Exit(1)
		}

	case "-h", "--help", "help":
		usage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		usage()
		os.Exit(1)
	}
}

func applyLogLevel(cfg *config.Config, levelStr string) {
	if level, err := zerolog.ParseLevel(levelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

func openDB(cfg *config.Config, readOnly bool) (*database.DB, error) {
	dbCfg := database.NewConfig(cfg.DBPath)
	dbCfg.ReadOnly = readOnly
	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// buildTranslator assembles the provider chain in preference order: remote
// API when configured, then the inert local model slot, then the dictionary
// safety net.
func buildTranslator(cfg *config.Config) *translate.Manager {
	providers := []translate.Provider{
		translate.NewAPIProvider(cfg.Translate.Endpoint, cfg.Translate.APIKey, nil),
		translate.NewLocalModelProvider(),
		translate.NewDictionaryProvider(),
	}
	resultCache := cache.New[translate.Result](cfg.Translate.CacheSize)
	return translate.NewManager(providers, resultCache, cfg.Translate.CacheTTL, cfg.Translate.TargetLanguage, log.Logger)
}

func buildClassifier(ctx context.Context, cfg *config.Config, translator *translate.Manager) *classify.Engine {
	var embedder classify.Embedder
	if cfg.Classify.EmbeddingURL != "" {
		embedder = classify.NewHTTPEmbedder(cfg.Classify.EmbeddingURL, cfg.Classify.EmbeddingAPIKey)
	}
	return classify.NewEngine(ctx, classify.DefaultSeeds, embedder, classify.Options{
		Threshold:     cfg.Classify.Threshold,
		PivotLanguage: cfg.Classify.PivotLanguage,
		Translator:    translator,
	}, log.Logger)
}

func buildOrchestrator(ctx context.Context, cfg *config.Config, db *database.DB) (*process.Orchestrator, *translate.Manager, error) {
	translator := buildTranslator(cfg)
	classifier := buildClassifier(ctx, cfg, translator)
	orchestrator, err := process.NewOrchestrator(db, classifier, translator, process.Config{
		WorkerCount:     cfg.WorkerCount,
		FetchTimeout:    cfg.FetchTimeout,
		HTTPConcurrency: cfg.HTTPConcurrency,
		StalenessWindow: cfg.StalenessWindow,
	})
	return orchestrator, translator, err
}

func runImport(cfg *config.Config, reset bool) error {
	if reset {
		if _, err := os.Stat(cfg.DBPath); err == nil {
			if err := database.DeleteDB(cfg.DBPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			log.Info().Str("path", cfg.DBPath).Msg("Deleted existing database")
		}
	}

	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := importfeeds.NewImporter(db).ImportFeeds(context.Background(), cfg.FeedsCSVPath)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d feeds successfully\n", report.Imported)
	if len(report.Errors) > 0 {
		fmt.Printf("Encountered %d errors:\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

// runSync executes sync runs either once or periodically.
func runSync(cfg *config.Config) error {
	if cfg.RunInterval <= 0 {
		log.Info().Msg("Running in one-shot mode")
	} else {
		log.Info().Int64("interval_minutes", int64(cfg.RunInterval.Minutes())).Msg("Running in periodic mode")
	}

	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	orchestrator, _, err := buildOrchestrator(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	if err := runSyncCycle(ctx, orchestrator); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Sync cycle canceled by shutdown signal")
			return nil
		}
		return err
	}

	if cfg.RunInterval <= 0 {
		log.Info().Msg("One-shot sync completed, exiting")
		return nil
	}

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", cfg.RunInterval).
		Time("next_run", time.Now().Add(cfg.RunInterval)).
		Msg("Waiting for next sync cycle")

	for {
		select {
		case <-ticker.C:
			log.Info().Msg("Starting scheduled sync cycle")

			if err := runSyncCycle(ctx, orchestrator); err != nil {
				if errors.Is(err, context.Canceled) {
					log.Info().Msg("Sync cycle canceled by shutdown signal")
					return nil
				}
				log.Error().Err(err).Msg("Sync cycle failed")
			}

			log.Info().
				Time("next_run", time.Now().Add(cfg.RunInterval)).
				Msg("Waiting for next sync cycle")

		case <-ctx.Done():
			log.Info().Msg("Shutting down periodic sync")
			return nil
		}
	}
}

func runSyncCycle(ctx context.Context, orchestrator *process.Orchestrator) error {
	cycleCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	log.Info().Int("worker_count", orchestrator.WorkerCount).Msg("Starting sync cycle")

	start := time.Now()
	result := orchestrator.SyncAll(cycleCtx)

	log.Info().
		Dur("duration", time.Since(start)).
		Int("feeds_processed", result.FeedsProcessed).
		Int("articles_added", result.TotalArticles).
		Int("errors", len(result.Errors)).
		Msg("Sync cycle finished")

	return ctx.Err()
}

// runServer starts the HTTP API with a full ingestion stack behind it so the
// sync and feed-test endpoints work.
func runServer(cfg *config.Config) error {
	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, translator, err := buildOrchestrator(context.Background(), cfg, db)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	return server.RunServer(db, cfg.ListenAddr(), log.Logger, cfg.APIKey, orchestrator, translator)
}

// runTestFeed probes a single feed URL and prints the outcome as JSON.
func runTestFeed(cfg *config.Config, url string) error {
	db, err := openDB(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := process.NewOrchestrator(db, nil, nil, process.Config{
		WorkerCount:  1,
		FetchTimeout: cfg.FetchTimeout,
	})
	if err != nil {
		return err
	}

	result := orchestrator.TestFeed(context.Background(), url)
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("feed test failed: %s", result.Error)
	}
	return nil
}
