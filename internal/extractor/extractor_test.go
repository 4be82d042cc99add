package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

func TestExtract_Basics(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	item := &gofeed.Item{
		GUID:            "urn:article:42",
		Title:           "A &amp; B: <i>novel</i> results",
		Description:     "<p>First   paragraph.</p><p>Second&nbsp;paragraph.</p>",
		Link:            "https://example.org/articles/42",
		PublishedParsed: &published,
		Authors: []*gofeed.Person{
			{Name: "Ada Lovelace"},
			{Name: "Charles Babbage"},
		},
		Categories: []string{"computing", " computing ", "history"},
	}

	rec := Extract(item)

	if rec.ExternalID != "urn:article:42" {
		t.Fatalf("unexpected external id: %s", rec.ExternalID)
	}
	if rec.Title != "A & B: novel results" {
		t.Fatalf("unexpected title: %q", rec.Title)
	}
	if strings.Contains(rec.Abstract, "<") || strings.Contains(rec.Abstract, "  ") {
		t.Fatalf("abstract not normalized: %q", rec.Abstract)
	}
	if !rec.PublishedAt.Equal(published) {
		t.Fatalf("unexpected date: %v", rec.PublishedAt)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "Ada Lovelace" {
		t.Fatalf("unexpected authors: %v", rec.Authors)
	}
	if len(rec.Keywords) != 2 {
		t.Fatalf("expected deduplicated keywords, got %v", rec.Keywords)
	}
}

func TestExtract_ExternalIDFallbacks(t *testing.T) {
	t.Parallel()

	linkOnly := Extract(&gofeed.Item{Link: "https://example.org/a"})
	if linkOnly.ExternalID != "https://example.org/a" {
		t.Fatalf("expected link as external id, got %s", linkOnly.ExternalID)
	}

	generated := Extract(&gofeed.Item{Title: "no identifiers at all"})
	if generated.ExternalID == "" {
		t.Fatal("expected a generated external id, got empty")
	}

	again := Extract(&gofeed.Item{Title: "no identifiers at all"})
	if generated.ExternalID == again.ExternalID {
		t.Fatal("generated ids must be unique")
	}
}

func TestExtract_InvalidDateFallsBackToNow(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC()
	rec := Extract(&gofeed.Item{GUID: "x", Published: "not a date"})
	after := time.Now().UTC()

	if rec.PublishedAt.Before(before) || rec.PublishedAt.After(after) {
		t.Fatalf("expected fallback to now, got %v", rec.PublishedAt)
	}
}

func TestExtract_StringDateParsing(t *testing.T) {
	t.Parallel()

	rec := Extract(&gofeed.Item{GUID: "x", Published: "Tue, 10 Feb 2026 08:00:00 +0000"})
	want := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	if !rec.PublishedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, rec.PublishedAt)
	}
}

func TestExtractDOI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"prefixed", "see doi:10.1002/jaba.123 for details", "10.1002/jaba.123"},
		{"url", "available at https://doi.org/10.1002/jaba.123.", "10.1002/jaba.123"},
		{"bare", "ref 10.1002/jaba.123, et al.", "10.1002/jaba.123"},
		{"trailing punctuation", "(doi:10.1002/jaba.123).", "10.1002/jaba.123"},
		{"none", "no identifier here", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractDOI(tc.text); got != tc.want {
				t.Fatalf("ExtractDOI(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtract_NilItemNeverPanics(t *testing.T) {
	t.Parallel()

	rec := Extract(nil)
	if rec.ExternalID == "" {
		t.Fatal("expected generated id for nil item")
	}
	if rec.PublishedAt.IsZero() {
		t.Fatal("expected non-zero publication date")
	}
}

func TestExtract_DublinCoreCreators(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{
		GUID:          "x",
		Author:        &gofeed.Person{Name: "Marie Curie"},
		DublinCoreExt: &ext.DublinCoreExtension{Creator: []string{"Marie Curie", "Pierre Curie"}},
	}

	rec := Extract(item)
	if len(rec.Authors) != 2 {
		t.Fatalf("expected 2 deduplicated authors, got %v", rec.Authors)
	}
}
