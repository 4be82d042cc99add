package models

import (
	"database/sql"
	"time"
)

// Feed formats accepted by the ingestor. "auto" lets the parser decide.
const (
	FormatAuto = "auto"
	FormatRSS  = "rss"
	FormatRSS2 = "rss2"
	FormatAtom = "atom"
)

// Feed represents a row in the 'feeds' table
type Feed struct {
	ID               int64          `db:"id"`
	URL              string         `db:"url"`
	Title            sql.NullString `db:"title"`
	Format           string         `db:"format"`
	Language         sql.NullString `db:"language"`
	Active           bool           `db:"active"`
	SyncIntervalSecs int64          `db:"sync_interval_secs"`
	FailuresCount    int            `db:"failures_count"`
	LastError        sql.NullString `db:"last_error"`
	LastSyncedAt     sql.NullTime   `db:"last_synced_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// NewFeed creates a new Feed with default values. A zero sync interval means
// the feed inherits the run-level staleness window.
func NewFeed() *Feed {
	now := time.Now()
	return &Feed{
		Format:           FormatAuto,
		Active:           true,
		SyncIntervalSecs: 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// KnownFormat reports whether the value is a feed format the parser accepts.
func KnownFormat(format string) bool {
	switch format {
	case FormatAuto, FormatRSS, FormatRSS2, FormatAtom:
		return true
	}
	return false
}
