package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"paperwatch/ingest/internal/cache"
)

type stubProvider struct {
	name       string
	confidence float64
	available  bool
	err        error
	out        string
	calls      int
}

func (s *stubProvider) Name() string              { return s.name }
func (s *stubProvider) Confidence() float64       { return s.confidence }
func (s *stubProvider) Available() bool           { return s.available }
func (s *stubProvider) Supports(_, _ string) bool { return true }

func (s *stubProvider) Translate(_ context.Context, text, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.out != "" {
		return s.out, nil
	}
	return text, nil
}

func newTestManager(providers ...Provider) *Manager {
	return NewManager(providers, cache.New[Result](16), time.Minute, "en", zerolog.Nop())
}

func TestTranslate_NoOpWhenAlreadyTarget(t *testing.T) {
	t.Parallel()

	p := &stubProvider{name: "stub", available: true, confidence: 0.9}
	m := newTestManager(p)

	res := m.Translate(context.Background(), "the study shows results for the analysis", "", "en")
	if res.Translated {
		t.Fatal("expected no-op for text already in target language")
	}
	if p.calls != 0 {
		t.Fatalf("provider should not be called, got %d calls", p.calls)
	}
	if res.Text != "the study shows results for the analysis" {
		t.Fatalf("text must pass through unchanged, got %q", res.Text)
	}
}

func TestTranslate_ChainFallback(t *testing.T) {
	t.Parallel()

	broken := &stubProvider{name: "broken", available: true, confidence: 0.9, err: errors.New("boom")}
	disabled := &stubProvider{name: "disabled", available: false, confidence: 0.8}
	fallback := &stubProvider{name: "fallback", available: true, confidence: 0.6, out: "the study"}

	m := newTestManager(broken, disabled, fallback)

	res := m.Translate(context.Background(), "el estudio según los resultados", "es", "en")
	if !res.Translated {
		t.Fatal("expected translation via fallback provider")
	}
	if res.Provider != "fallback" {
		t.Fatalf("expected fallback provider, got %s", res.Provider)
	}
	if !res.FallbackUsed {
		t.Fatal("expected FallbackUsed=true when first-tried provider failed")
	}
	if disabled.calls != 0 {
		t.Fatal("unavailable provider must be skipped without an attempt")
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected low-confidence warning for confidence 0.6")
	}
}

func TestTranslate_TotalAvailability(t *testing.T) {
	t.Parallel()

	broken := &stubProvider{name: "broken", available: true, confidence: 0.9, err: errors.New("boom")}
	m := newTestManager(broken)

	res := m.Translate(context.Background(), "la recherche pour les résultats", "fr", "en")
	if res.Translated {
		t.Fatal("expected Translated=false on chain exhaustion")
	}
	if res.Text != "la recherche pour les résultats" {
		t.Fatalf("original text must come back, got %q", res.Text)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning on chain exhaustion")
	}
}

func TestTranslate_CacheHit(t *testing.T) {
	t.Parallel()

	p := &stubProvider{name: "stub", available: true, confidence: 0.9, out: "the study"}
	m := newTestManager(p)

	first := m.Translate(context.Background(), "el estudio según los resultados", "es", "en")
	if first.FromCache {
		t.Fatal("first call must miss the cache")
	}

	second := m.Translate(context.Background(), "el estudio según los resultados", "es", "en")
	if !second.FromCache {
		t.Fatal("second call must hit the cache")
	}
	if p.calls != 1 {
		t.Fatalf("provider must be called once, got %d", p.calls)
	}
	if second.Text != first.Text {
		t.Fatalf("cached result differs: %q vs %q", second.Text, first.Text)
	}
}

func TestTranslate_StatsRecorded(t *testing.T) {
	t.Parallel()

	broken := &stubProvider{name: "broken", available: true, confidence: 0.9, err: errors.New("boom")}
	fallback := &stubProvider{name: "fallback", available: true, confidence: 0.6, out: "ok"}
	m := newTestManager(broken, fallback)

	m.Translate(context.Background(), "el estudio según los resultados", "es", "en")

	stats := m.Stats()
	if stats["broken"].Failures != 1 {
		t.Fatalf("expected 1 failure for broken, got %+v", stats["broken"])
	}
	if stats["fallback"].Successes != 1 {
		t.Fatalf("expected 1 success for fallback, got %+v", stats["fallback"])
	}
}

func TestAPIProvider_Translate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"translatedText":"the study"}]}`))
	}))
	defer srv.Close()

	p := NewAPIProvider(srv.URL, "test-key", nil)

	got, err := p.Translate(context.Background(), "el estudio", "es", "en")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "the study" {
		t.Fatalf("expected 'the study', got %q", got)
	}
}

func TestAPIProvider_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewAPIProvider(srv.URL, "test-key", nil)
	if _, err := p.Translate(context.Background(), "texto", "es", "en"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestDictionaryProvider_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewDictionaryProvider()

	got, err := p.Translate(context.Background(), "Estudio de datos", "es", "en")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Study de data" {
		t.Fatalf("unexpected substitution result: %q", got)
	}

	again, _ := p.Translate(context.Background(), "Estudio de datos", "es", "en")
	if got != again {
		t.Fatal("dictionary provider must be deterministic")
	}
}

func TestLocalModelProvider_NeverAvailable(t *testing.T) {
	t.Parallel()

	p := NewLocalModelProvider()
	if p.Available() {
		t.Fatal("local model provider must report unavailable")
	}
	if _, err := p.Translate(context.Background(), "x", "es", "en"); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"the study and the results of the analysis", "en"},
		{"el estudio de los resultados según la investigación", "es"},
		{"la recherche et les résultats de l'étude pour", "fr"},
		{"die studie und die ergebnisse der forschung ist", "de"},
		{"", "en"},
		{"zzz qqq xxx", "en"},
	}

	for _, tc := range cases {
		if got := DetectLanguage(tc.text); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}
