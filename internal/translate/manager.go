package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"paperwatch/ingest/internal/cache"
)

const lowConfidenceThreshold = 0.8

// ProviderStats accumulates per-provider usage counters.
type ProviderStats struct {
	Attempts     int64         `json:"attempts"`
	Successes    int64         `json:"successes"`
	Failures     int64         `json:"failures"`
	TotalLatency time.Duration `json:"total_latency"`
}

// Manager drives the provider chain. It is constructed once at process start
// and passed to callers explicitly; there is no package-level instance.
type Manager struct {
	providers     []Provider
	cache         *cache.Cache[Result]
	cacheTTL      time.Duration
	defaultTarget string
	logger        zerolog.Logger

	mu    sync.Mutex
	stats map[string]*ProviderStats
}

// NewManager builds a translation manager over an ordered provider chain.
func NewManager(providers []Provider, c *cache.Cache[Result], cacheTTL time.Duration, defaultTarget string, logger zerolog.Logger) *Manager {
	if defaultTarget == "" {
		defaultTarget = "en"
	}
	return &Manager{
		providers:     providers,
		cache:         c,
		cacheTTL:      cacheTTL,
		defaultTarget: defaultTarget,
		logger:        logger,
		stats:         make(map[string]*ProviderStats),
	}
}

// Translate resolves the source language when absent, then walks the provider
// chain until one succeeds. It always returns a Result: chain exhaustion
// yields the original text with Translated=false and a warning, never an
// error.
func (m *Manager) Translate(ctx context.Context, text, source, target string) Result {
	start := time.Now()

	if target == "" {
		target = m.defaultTarget
	}
	if source == "" || source == "auto" {
		source = DetectLanguage(text)
	}

	result := Result{
		Text:           text,
		SourceLanguage: source,
		TargetLanguage: target,
	}

	if text == "" || source == target {
		result.ProcessingMs = time.Since(start).Milliseconds()
		return result
	}

	key := cacheKey(text, source, target)
	if m.cache != nil {
		if cached, ok := m.cache.Get(key); ok {
			cached.FromCache = true
			cached.ProcessingMs = time.Since(start).Milliseconds()
			return cached
		}
	}

	attempted := 0
	for _, provider := range m.providers {
		if !provider.Available() || !provider.Supports(source, target) {
			continue
		}
		attempted++

		attemptStart := time.Now()
		translated, err := provider.Translate(ctx, text, source, target)
		m.record(provider.Name(), err == nil, time.Since(attemptStart))

		if err != nil {
			m.logger.Warn().
				Err(err).
				Str("provider", provider.Name()).
				Str("source", source).
				Str("target", target).
				Msg("Translation provider failed, trying next in chain")
			continue
		}

		result.Text = translated
		result.Translated = true
		result.Provider = provider.Name()
		result.Confidence = provider.Confidence()
		result.FallbackUsed = attempted > 1
		if result.Confidence < lowConfidenceThreshold {
			result.Warnings = append(result.Warnings, "low confidence translation")
		}
		result.ProcessingMs = time.Since(start).Milliseconds()

		if m.cache != nil {
			m.cache.Set(key, result, m.cacheTTL)
		}
		return result
	}

	result.Warnings = append(result.Warnings, "all translation providers failed, returning original text")
	result.ProcessingMs = time.Since(start).Milliseconds()
	m.logger.Warn().
		Str("source", source).
		Str("target", target).
		Int("providers_attempted", attempted).
		Msg("Translation chain exhausted")
	return result
}

// TranslateText is a convenience wrapper used by classification to pivot
// abstracts: it returns the translated text and whether translation happened.
func (m *Manager) TranslateText(ctx context.Context, text, target string) (string, bool) {
	res := m.Translate(ctx, text, "", target)
	return res.Text, res.Translated
}

// Stats returns a snapshot of per-provider usage counters.
func (m *Manager) Stats() map[string]ProviderStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]ProviderStats, len(m.stats))
	for name, s := range m.stats {
		snapshot[name] = *s
	}
	return snapshot
}

func (m *Manager) record(provider string, ok bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats[provider]
	if s == nil {
		s = &ProviderStats{}
		m.stats[provider] = s
	}
	s.Attempts++
	if ok {
		s.Successes++
	} else {
		s.Failures++
	}
	s.TotalLatency += latency
}

func cacheKey(text, source, target string) string {
	h := sha256.Sum256([]byte(source + "\x00" + target + "\x00" + text))
	return "translate:" + hex.EncodeToString(h[:])
}
