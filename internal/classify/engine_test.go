package classify

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// stubEmbedder maps known substrings to fixed directions in a 3-dimensional
// space, giving fully deterministic similarities.
type stubEmbedder struct {
	axes map[string][]float64
	err  error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v := []float64{0.01, 0.01, 0.01}
		for needle, axis := range s.axes {
			if strings.Contains(strings.ToLower(text), needle) {
				for j := range v {
					v[j] += axis[j]
				}
			}
		}
		Normalize(v)
		out[i] = v
	}
	return out, nil
}

var testSeeds = []CategorySeed{
	{
		Name: "Biology", Slug: "biology",
		Examples: []string{"gene expression", "cell biology"},
		Terms:    []string{"gene", "cell", "protein"},
	},
	{
		Name: "Physics", Slug: "physics",
		Examples: []string{"quantum mechanics", "particle physics"},
		Terms:    []string{"quantum", "particle", "energy"},
	},
	{
		Name: "Computer Science", Slug: "computer-science",
		Examples: []string{"machine learning models", "distributed systems"},
		Terms:    []string{"algorithm", "software", "learning"},
	},
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{axes: map[string][]float64{
		"gene":     {1, 0, 0},
		"cell":     {1, 0, 0},
		"quantum":  {0, 1, 0},
		"particle": {0, 1, 0},
		"machine":  {0, 0, 1},
		"learning": {0, 0, 1},
		"systems":  {0, 0, 1},
	}}
}

func TestEngine_ClassifyByEmbedding(t *testing.T) {
	t.Parallel()

	e := NewEngine(context.Background(), testSeeds, newStubEmbedder(), Options{}, zerolog.Nop())

	res := e.Classify(context.Background(), "Quantum entanglement of particle pairs", "", nil)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Category.Slug != "physics" {
		t.Fatalf("expected physics, got %s", res.Category.Slug)
	}
	if res.Method != MethodEmbedding {
		t.Fatalf("expected embedding method, got %s", res.Method)
	}
	if len(res.Alternatives) == 0 || len(res.Alternatives) > 3 {
		t.Fatalf("expected 1-3 alternatives, got %d", len(res.Alternatives))
	}
	for _, alt := range res.Alternatives {
		if alt.Confidence > res.Category.Confidence {
			t.Fatalf("alternative %s outranks best match", alt.Slug)
		}
	}
}

func TestEngine_EmbeddingErrorFallsBack(t *testing.T) {
	t.Parallel()

	// Centroids computed fine, but classification-time embeds fail.
	embedder := newStubEmbedder()
	e := NewEngine(context.Background(), testSeeds, embedder, Options{}, zerolog.Nop())
	embedder.err = errors.New("model not initialized")

	res := e.Classify(context.Background(), "Gene and cell and protein study", "", nil)
	if res == nil {
		t.Fatal("expected fallback classification")
	}
	if res.Method != MethodKeywords {
		t.Fatalf("expected keyword fallback, got %s", res.Method)
	}
	if res.Category.Slug != "biology" {
		t.Fatalf("expected biology from keyword scorer, got %s", res.Category.Slug)
	}
}

func TestEngine_BelowThresholdFallsBack(t *testing.T) {
	t.Parallel()

	// A high threshold forces the sub-threshold path even for clear matches.
	e := NewEngine(context.Background(), testSeeds, newStubEmbedder(), Options{Threshold: 0.999999}, zerolog.Nop())

	res := e.Classify(context.Background(), "an unrelated text mentioning algorithm once", "", nil)
	if res == nil {
		t.Fatal("expected fallback classification")
	}
	if res.Method != MethodKeywords {
		t.Fatalf("expected keyword fallback below threshold, got %s", res.Method)
	}
}

func TestEngine_NilEmbedderUsesFallback(t *testing.T) {
	t.Parallel()

	e := NewEngine(context.Background(), testSeeds, nil, Options{}, zerolog.Nop())

	res := e.Classify(context.Background(), "quantum particle energy", "", nil)
	if res == nil || res.Method != MethodKeywords {
		t.Fatalf("expected keyword classification, got %+v", res)
	}
}

func TestEngine_UnclassifiableReturnsNil(t *testing.T) {
	t.Parallel()

	e := NewEngine(context.Background(), testSeeds, nil, Options{}, zerolog.Nop())

	if res := e.Classify(context.Background(), "completely unrelated cooking recipe", "", nil); res != nil {
		t.Fatalf("expected nil for zero keyword hits, got %+v", res)
	}
}

func TestEngine_DerivesSeedSlugsFromNames(t *testing.T) {
	t.Parallel()

	e := NewEngine(context.Background(), DefaultSeeds, nil, Options{}, zerolog.Nop())

	for _, want := range []string{"biology", "computer-science", "environmental-science"} {
		if _, ok := e.SeedBySlug(want); !ok {
			t.Errorf("no seed for derived slug %q", want)
		}
	}

	// The shared seed table stays slugless; derivation happens on the
	// engine's own copy.
	for _, seed := range DefaultSeeds {
		if seed.Slug != "" {
			t.Fatalf("DefaultSeeds mutated: %q has slug %q", seed.Name, seed.Slug)
		}
	}

	res := e.Classify(context.Background(), "quantum particle energy", "", nil)
	if res == nil || res.Category.Slug != "physics" {
		t.Fatalf("expected physics slug on fallback result, got %+v", res)
	}
}

func TestCentroidDeterminism(t *testing.T) {
	t.Parallel()

	a := NewEngine(context.Background(), testSeeds, newStubEmbedder(), Options{}, zerolog.Nop())
	b := NewEngine(context.Background(), testSeeds, newStubEmbedder(), Options{}, zerolog.Nop())

	if len(a.centroids) != len(b.centroids) {
		t.Fatalf("centroid count differs: %d vs %d", len(a.centroids), len(b.centroids))
	}
	for i := range a.centroids {
		sim := Cosine(a.centroids[i].vector, b.centroids[i].vector)
		if math.Abs(sim-1.0) > 1e-9 {
			t.Fatalf("centroid %d not deterministic: similarity %f", i, sim)
		}
	}
}

func TestCosine_Bounds(t *testing.T) {
	t.Parallel()

	a := []float64{1, 0}
	b := []float64{-1, 0}
	if got := Cosine(a, b); got != 0 {
		t.Fatalf("negative dot product must clamp to 0, got %f", got)
	}
	if got := Cosine(a, a); got != 1 {
		t.Fatalf("identical unit vectors must score 1, got %f", got)
	}
	if got := Cosine(a, []float64{1}); got != 0 {
		t.Fatalf("length mismatch must score 0, got %f", got)
	}
}

func TestFallbackClassify_TieBreaksByDeclarationOrder(t *testing.T) {
	t.Parallel()

	// One hit each for biology and physics; biology is declared first.
	res := FallbackClassify(testSeeds, "gene quantum", "", nil)
	if res == nil {
		t.Fatal("expected a fallback classification")
	}
	if res.Category.Slug != "biology" {
		t.Fatalf("tie must go to first declared category, got %s", res.Category.Slug)
	}
}

func TestFallbackClassify_ConfidenceFormula(t *testing.T) {
	t.Parallel()

	res := FallbackClassify(testSeeds, "gene gene gene", "", nil)
	if res == nil {
		t.Fatal("expected classification")
	}
	if math.Abs(res.Category.Confidence-0.3) > 1e-9 {
		t.Fatalf("expected confidence 0.3 for 3 hits, got %f", res.Category.Confidence)
	}
}
