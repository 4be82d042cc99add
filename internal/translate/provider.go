// Package translate resolves text language and translates toward a target
// language through an ordered chain of pluggable providers, with caching and
// per-provider usage statistics. Translation never fails: when every provider
// is exhausted the original text comes back with a warning attached.
package translate

import "context"

// Provider is one translation backend in the chain. Providers declare their
// own confidence and availability; selection happens at call time, not at
// build time, so an inert provider can be swapped in later without touching
// the chain logic.
type Provider interface {
	Name() string
	// Confidence is the provider's nominal result quality in [0, 1].
	Confidence() float64
	// Available reports whether the provider can be attempted at all
	// (credentials configured, model loaded, ...).
	Available() bool
	// Supports reports whether the provider handles the language pair.
	Supports(source, target string) bool
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Result is the outcome of a Translate call.
type Result struct {
	Text           string   `json:"translated_text"`
	SourceLanguage string   `json:"source_language"`
	TargetLanguage string   `json:"target_language"`
	Translated     bool     `json:"is_translated"`
	Confidence     float64  `json:"confidence"`
	Provider       string   `json:"provider,omitempty"`
	FromCache      bool     `json:"from_cache"`
	FallbackUsed   bool     `json:"fallback_used"`
	ProcessingMs   int64    `json:"processing_time_ms"`
	Warnings       []string `json:"warnings,omitempty"`
}
