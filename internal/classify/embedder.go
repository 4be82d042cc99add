package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Embedder turns texts into fixed-length L2-normalized vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// HTTPEmbedder calls a remote sentence-embedding inference service.
type HTTPEmbedder struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates a reusable client for the embedding service.
func NewHTTPEmbedder(endpoint, apiKey string) *HTTPEmbedder {
	return &HTTPEmbedder{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed posts the texts and returns one normalized vector per input.
func (c *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("embedding service not configured")
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned %s", resp.Status)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts",
			len(parsed.Embeddings), len(texts))
	}

	for _, v := range parsed.Embeddings {
		Normalize(v)
	}
	return parsed.Embeddings, nil
}

// Normalize scales v to unit length in place. Zero vectors stay zero.
func Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

// Cosine returns the similarity of two normalized vectors, clamped to [0, 1].
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}
