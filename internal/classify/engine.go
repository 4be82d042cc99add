// Package classify assigns a topical category to article text, primarily by
// cosine similarity against precomputed category centroids and, when the
// embedding path cannot decide, by keyword rules. Callers never see an error
// from this package: every failure path degrades to the fallback scorer or to
// an unclassified result.
package classify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"paperwatch/ingest/internal/models"
)

// Classification methods reported in Result.Method.
const (
	MethodEmbedding = "embedding"
	MethodKeywords  = "keywords"
)

// Match is one scored category candidate.
type Match struct {
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	Confidence float64 `json:"confidence"`
}

// Result is a classification outcome: the best category plus up to three
// alternatives.
type Result struct {
	Category     Match   `json:"category"`
	Alternatives []Match `json:"alternative_categories,omitempty"`
	Method       string  `json:"method"`
}

// Translator pivots non-target-language text before embedding. Satisfied by
// translate.Manager.
type Translator interface {
	TranslateText(ctx context.Context, text, target string) (string, bool)
}

type centroid struct {
	seed   CategorySeed
	vector []float64
}

// Engine holds the category centroids and the decision threshold. Construct
// one per process and inject it; there is no package-level instance.
type Engine struct {
	seeds      []CategorySeed
	embedder   Embedder
	translator Translator
	pivotLang  string
	threshold  float64
	centroids  []centroid
	logger     zerolog.Logger
}

// Options tunes engine construction.
type Options struct {
	// Threshold is the minimum cosine similarity for the embedding path to
	// decide; below it the keyword fallback runs. Zero means the default 0.3.
	Threshold float64
	// PivotLanguage is the language abstracts are translated to before
	// embedding. Zero value means "en".
	PivotLanguage string
	// Translator is optional; without it abstracts embed as-is.
	Translator Translator
}

// NewEngine computes the category centroids once, up front. A nil or failing
// embedder is not an error: the engine simply classifies through the keyword
// fallback until the embedding path works.
func NewEngine(ctx context.Context, seeds []CategorySeed, embedder Embedder, opts Options, logger zerolog.Logger) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.3
	}
	if opts.PivotLanguage == "" {
		opts.PivotLanguage = "en"
	}

	seeds = append([]CategorySeed(nil), seeds...)
	for i := range seeds {
		if seeds[i].Slug == "" {
			seeds[i].Slug = models.Slugify(seeds[i].Name)
		}
	}

	e := &Engine{
		seeds:      seeds,
		embedder:   embedder,
		translator: opts.Translator,
		pivotLang:  opts.PivotLanguage,
		threshold:  opts.Threshold,
		logger:     logger,
	}

	if embedder != nil {
		if err := e.computeCentroids(ctx); err != nil {
			logger.Warn().Err(err).Msg("Centroid computation failed, embedding path disabled until restart")
			e.centroids = nil
		}
	}
	return e
}

// computeCentroids embeds each category's example phrases, averages the
// vectors, then re-normalizes. Averaging before normalizing is deliberate:
// reordering the two steps changes the result.
func (e *Engine) computeCentroids(ctx context.Context) error {
	centroids := make([]centroid, 0, len(e.seeds))
	for _, seed := range e.seeds {
		vectors, err := e.embedder.Embed(ctx, seed.Examples)
		if err != nil {
			return err
		}
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			continue
		}

		avg := make([]float64, len(vectors[0]))
		for _, v := range vectors {
			for i := range avg {
				avg[i] += v[i]
			}
		}
		for i := range avg {
			avg[i] /= float64(len(vectors))
		}
		Normalize(avg)

		centroids = append(centroids, centroid{seed: seed, vector: avg})
	}

	e.centroids = centroids
	e.logger.Info().Int("categories", len(centroids)).Msg("Category centroids computed")
	return nil
}

// Classify maps the article text to a category. It returns nil when no
// category can be assigned at all; it never returns an error.
func (e *Engine) Classify(ctx context.Context, title, abstract string, keywords []string) *Result {
	if res := e.classifyByEmbedding(ctx, title, abstract, keywords); res != nil {
		return res
	}
	return FallbackClassify(e.seeds, title, abstract, keywords)
}

func (e *Engine) classifyByEmbedding(ctx context.Context, title, abstract string, keywords []string) *Result {
	if e.embedder == nil || len(e.centroids) == 0 {
		return nil
	}

	if e.translator != nil && abstract != "" {
		if pivoted, ok := e.translator.TranslateText(ctx, abstract, e.pivotLang); ok {
			abstract = pivoted
		}
	}

	blob := strings.TrimSpace(title + " " + abstract + " " + strings.Join(keywords, " "))
	if blob == "" {
		return nil
	}

	vectors, err := e.embedder.Embed(ctx, []string{blob})
	if err != nil {
		e.logger.Debug().Err(err).Msg("Embedding failed, using keyword fallback")
		return nil
	}

	matches := make([]Match, 0, len(e.centroids))
	for _, c := range e.centroids {
		matches = append(matches, Match{
			Name:       c.seed.Name,
			Slug:       c.seed.Slug,
			Confidence: Cosine(vectors[0], c.vector),
		})
	}

	// Insertion sort by descending confidence; the list is tiny.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Confidence > matches[j-1].Confidence; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	if matches[0].Confidence < e.threshold {
		e.logger.Debug().
			Float64("best", matches[0].Confidence).
			Float64("threshold", e.threshold).
			Msg("Best similarity below threshold, using keyword fallback")
		return nil
	}

	alternatives := matches[1:]
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}

	return &Result{
		Category:     matches[0],
		Alternatives: alternatives,
		Method:       MethodEmbedding,
	}
}

// SeedBySlug returns the seed declaration for a slug, for lazily creating
// category rows on first assignment.
func (e *Engine) SeedBySlug(slug string) (CategorySeed, bool) {
	for _, seed := range e.seeds {
		if seed.Slug == slug {
			return seed, true
		}
	}
	return CategorySeed{}, false
}
