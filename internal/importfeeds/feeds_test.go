package importfeeds

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paperwatch/ingest/internal/database"
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

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportFeeds(t *testing.T) {
	csv := `url,format,language,active,sync_interval_secs
https://example.org/rss.xml,rss2,en,true,600
https://example.org/atom.xml,atom,,yes,
,rss2,en,true,
https://example.org/rss.xml,rss2,en,true,600
https://example.org/other.xml,,de,false,900
https://example.org/opml.xml,opml,en,true,
`
	db := newTestDB(t)
	report, err := NewImporter(db).ImportFeeds(context.Background(), writeCSV(t, csv))
	if err != nil {
		t.Fatalf("ImportFeeds: %v", err)
	}

	if report.Imported != 3 {
		t.Errorf("Imported = %d, want 3", report.Imported)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("Errors = %v, want 3", report.Errors)
	}
	if !strings.Contains(report.Errors[0], "empty URL") {
		t.Errorf("first error %q, want empty URL", report.Errors[0])
	}
	if !strings.Contains(report.Errors[1], "duplicate URL") {
		t.Errorf("second error %q, want duplicate URL", report.Errors[1])
	}
	if !strings.Contains(report.Errors[2], "unknown format") {
		t.Errorf("third error %q, want unknown format", report.Errors[2])
	}

	var interval int64
	var active bool
	row := db.QueryRow(`SELECT sync_interval_secs, active FROM feeds WHERE url = ?`, "https://example.org/other.xml")
	if err := row.Scan(&interval, &active); err != nil {
		t.Fatalf("scan feed: %v", err)
	}
	if interval != 900 {
		t.Errorf("sync_interval_secs = %d, want 900", interval)
	}
	if active {
		t.Error("active = true, want false")
	}
}

func TestImportFeedsMissingURLColumn(t *testing.T) {
	db := newTestDB(t)
	_, err := NewImporter(db).ImportFeeds(context.Background(), writeCSV(t, "link,language\nhttps://x.example,en\n"))
	if err == nil {
		t.Fatal("expected error for missing url column")
	}
	if !strings.Contains(err.Error(), "url") {
		t.Errorf("error %q does not mention the url column", err)
	}
}

func TestImportFeedsMissingFile(t *testing.T) {
	db := newTestDB(t)
	if _, err := NewImporter(db).ImportFeeds(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
