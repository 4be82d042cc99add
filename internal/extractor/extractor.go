// Package extractor normalizes raw feed items into article records. It never
// fails: every field has a safe default so one malformed item cannot abort
// processing of the rest of a feed.
package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

// Record is the normalized form of a single feed item.
type Record struct {
	ExternalID  string
	Title       string
	Abstract    string
	URL         string
	PublishedAt time.Time
	Authors     []string
	Keywords    []string
	DOI         string // empty when no DOI was found
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// DOI patterns in priority order: explicit doi: prefix, doi.org URL, bare.
var doiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)doi:\s*(10\.\d{4,9}/[^\s"'<>]+)`),
	regexp.MustCompile(`(?i)doi\.org/(10\.\d{4,9}/[^\s"'<>]+)`),
	regexp.MustCompile(`\b(10\.\d{4,9}/[^\s"'<>]+)`),
}

var trailingPunctRe = regexp.MustCompile(`[.,;:!?)\]]+$`)

// Extract converts one parsed feed item into a Record.
func Extract(item *gofeed.Item) Record {
	if item == nil {
		return Record{
			ExternalID:  uuid.NewString(),
			PublishedAt: time.Now().UTC(),
		}
	}

	rec := Record{
		ExternalID:  externalID(item),
		Title:       CollapseWhitespace(StripHTML(item.Title)),
		Abstract:    abstract(item),
		URL:         strings.TrimSpace(item.Link),
		PublishedAt: publicationDate(item),
		Authors:     authors(item),
		Keywords:    keywords(item),
	}
	rec.DOI = ExtractDOI(strings.Join([]string{item.GUID, item.Link, rec.Title, rec.Abstract}, " "))
	return rec
}

// externalID picks the first non-empty provider identifier; a generated id
// guarantees extraction always yields a dedup key.
func externalID(item *gofeed.Item) string {
	if id := strings.TrimSpace(item.GUID); id != "" {
		return id
	}
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	return uuid.NewString()
}

func abstract(item *gofeed.Item) string {
	raw := item.Content
	if strings.TrimSpace(raw) == "" {
		raw = item.Description
	}
	return CollapseWhitespace(StripHTML(raw))
}

func publicationDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if t, ok := parseDate(raw); ok {
			return t
		}
	}
	return time.Now().UTC()
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02",
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// authors collects names from every provider field that can carry them
// (authors list, single author, dc:creator) and deduplicates case-sensitively
// while preserving order. Names are never guessed from titles.
func authors(item *gofeed.Item) []string {
	var raw []string
	for _, person := range item.Authors {
		if person != nil {
			raw = append(raw, person.Name)
		}
	}
	if item.Author != nil {
		raw = append(raw, item.Author.Name)
	}
	if item.DublinCoreExt != nil {
		raw = append(raw, item.DublinCoreExt.Creator...)
	}
	return dedupTrimmed(raw)
}

func keywords(item *gofeed.Item) []string {
	raw := append([]string{}, item.Categories...)
	if item.DublinCoreExt != nil {
		raw = append(raw, item.DublinCoreExt.Subject...)
	}
	return dedupTrimmed(raw)
}

func dedupTrimmed(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// ExtractDOI returns the first DOI found in the text with trailing punctuation
// stripped, or the empty string.
func ExtractDOI(text string) string {
	for _, pattern := range doiPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return trailingPunctRe.ReplaceAllString(m[1], "")
		}
	}
	return ""
}

// StripHTML reduces an HTML fragment to its text content with entities
// decoded. Unparseable input is returned as-is.
func StripHTML(raw string) string {
	if raw == "" || !strings.ContainsAny(raw, "<&") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return doc.Text()
}

// CollapseWhitespace trims and squeezes runs of whitespace to single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
