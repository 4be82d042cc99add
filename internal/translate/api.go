package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIProvider translates through a remote HTTP JSON API. It is the
// high-quality head of the chain and is only attempted when an endpoint and
// key are configured.
type APIProvider struct {
	endpoint string
	apiKey   string
	pairs    map[string]bool // "source>target"
	http     *http.Client
}

var _ Provider = (*APIProvider)(nil)

// NewAPIProvider builds the remote provider. pairs lists supported language
// pairs as [source, target] tuples; empty means every pair is accepted.
func NewAPIProvider(endpoint, apiKey string, pairs [][2]string) *APIProvider {
	supported := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		supported[p[0]+">"+p[1]] = true
	}
	return &APIProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		pairs:    supported,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *APIProvider) Name() string        { return "remote-api" }
func (p *APIProvider) Confidence() float64 { return 0.9 }

func (p *APIProvider) Available() bool {
	return p.endpoint != "" && p.apiKey != ""
}

func (p *APIProvider) Supports(source, target string) bool {
	if len(p.pairs) == 0 {
		return true
	}
	return p.pairs[source+">"+target]
}

type apiRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type apiResponse struct {
	Translations []struct {
		TranslatedText string `json:"translatedText"`
	} `json:"translations"`
}

// Translate posts {q, source, target, format:"text"} and reads the first
// translation from the response.
func (p *APIProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(apiRequest{Q: text, Source: source, Target: target, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("marshal translate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate API %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return "", fmt.Errorf("translate API returned no translations")
	}
	return parsed.Translations[0].TranslatedText, nil
}
