// Package importfeeds loads feed subscriptions from a CSV file into the
// database. The CSV must carry a url column; format, language, active, and
// sync_interval_secs are optional and fall back to feed defaults.
package importfeeds

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"paperwatch/ingest/internal/database"
	"paperwatch/ingest/internal/models"
)

// Importer handles the feed import process.
type Importer struct {
	db *database.DB
}

// Report summarizes one import run. Row-level problems are collected, never
// fatal: one malformed line must not block the rest of the file.
type Report struct {
	Imported int
	Errors   []string
}

// NewImporter creates a new feed importer.
func NewImporter(db *database.DB) *Importer {
	return &Importer{db: db}
}

// ImportFeeds reads the CSV at csvPath and inserts one feed per row.
func (i *Importer) ImportFeeds(ctx context.Context, csvPath string) (*Report, error) {
	log.Info().Str("csv", csvPath).Msg("Starting feed import")

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	report, err := i.parseAndImport(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("import feeds: %w", err)
	}

	log.Info().
		Int("imported", report.Imported).
		Int("errors", len(report.Errors)).
		Msg("Import completed")
	return report, nil
}

func (i *Importer) parseAndImport(ctx context.Context, csvData io.Reader) (*Report, error) {
	reader := csv.NewReader(csvData)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	log.Debug().Strs("header", header).Msg("CSV header read")

	urlIdx := findColumnIndex(header, "url")
	if urlIdx < 0 {
		return nil, fmt.Errorf("required column 'url' not found in CSV header")
	}
	formatIdx := findColumnIndex(header, "format")
	languageIdx := findColumnIndex(header, "language")
	activeIdx := findColumnIndex(header, "active")
	intervalIdx := findColumnIndex(header, "sync_interval_secs")

	report := &Report{Errors: []string{}}
	lineCount := 1 // header already read

	for {
		lineCount++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", lineCount).Msg("Error reading CSV line")
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineCount, err))
			continue
		}
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		feed := models.NewFeed()
		feed.URL = safeGetValue(record, urlIdx)
		if format := safeGetValue(record, formatIdx); format != "" {
			format = strings.ToLower(format)
			if !models.KnownFormat(format) {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: unknown format %q", lineCount, format))
				continue
			}
			feed.Format = format
		}
		if language := safeGetValue(record, languageIdx); language != "" {
			feed.Language.String, feed.Language.Valid = language, true
		}
		if active := safeGetValue(record, activeIdx); active != "" {
			feed.Active = parseBool(active)
		}
		if interval := safeGetValue(record, intervalIdx); interval != "" {
			secs, err := strconv.ParseInt(interval, 10, 64)
			if err != nil || secs < 0 {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: bad sync_interval_secs %q", lineCount, interval))
				continue
			}
			feed.SyncIntervalSecs = secs
		}

		if feed.URL == "" {
			log.Warn().Int("line", lineCount).Msg("Skipping row with empty URL")
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: empty URL", lineCount))
			continue
		}

		logger := log.With().
			Int("line", lineCount).
			Str("url", feed.URL).
			Logger()

		if err := i.db.InsertFeed(ctx, feed); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				logger.Warn().Msg("Duplicate URL")
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: duplicate URL: %s", lineCount, feed.URL))
			} else {
				logger.Error().Err(err).Msg("Failed to insert feed")
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineCount, err))
			}
			continue
		}

		report.Imported++
		logger.Debug().Msg("Feed inserted")
	}

	return report, nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			return i
		}
	}
	return -1
}

func safeGetValue(record []string, index int) string {
	if index >= 0 && index < len(record) {
		return strings.TrimSpace(record[index])
	}
	return ""
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
