package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"paperwatch/ingest/internal/extractor"
)

const (
	testFeedPayloadTTL = 5 * time.Minute
	maxSampleItems     = 3
)

// SampleItem is one preview entry from a feed test.
type SampleItem struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	PubDate    string   `json:"pub_date,omitempty"`
	Author     string   `json:"author,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// TestFeedResult reports whether a feed URL is fetchable and parseable,
// together with a few sample items. Nothing is persisted.
type TestFeedResult struct {
	Success         bool         `json:"success"`
	ItemsFound      int          `json:"items_found"`
	FeedTitle       string       `json:"feed_title,omitempty"`
	FeedDescription string       `json:"feed_description,omitempty"`
	SampleItems     []SampleItem `json:"sample_items,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// TestFeed fetches and parses a feed without writing anything to the
// database. Payloads are cached briefly so repeated probes of the same URL
// from an interactive client do not hammer the source.
func (o *Orchestrator) TestFeed(ctx context.Context, url string) *TestFeedResult {
	payload, ok := o.payloadCache.Get(url)
	if !ok {
		var err error
		payload, err = o.fetchRaw(ctx, url)
		if err != nil {
			return &TestFeedResult{Error: err.Error()}
		}
		o.payloadCache.Set(url, payload, testFeedPayloadTTL)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(payload))
	if err != nil {
		return &TestFeedResult{Error: fmt.Sprintf("parse feed: %v", err)}
	}

	result := &TestFeedResult{
		Success:         true,
		ItemsFound:      len(parsed.Items),
		FeedTitle:       parsed.Title,
		FeedDescription: parsed.Description,
	}
	for _, item := range parsed.Items {
		if len(result.SampleItems) >= maxSampleItems {
			break
		}
		rec := extractor.Extract(item)
		sample := SampleItem{
			Title:      rec.Title,
			Link:       rec.URL,
			Categories: rec.Keywords,
		}
		if item.Published != "" {
			sample.PubDate = item.Published
		}
		if len(rec.Authors) > 0 {
			sample.Author = rec.Authors[0]
		}
		result.SampleItems = append(result.SampleItems, sample)
	}
	return result
}

func (o *Orchestrator) fetchRaw(ctx context.Context, url string) ([]byte, error) {
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

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return payload, nil
}
