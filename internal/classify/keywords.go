package classify

import "strings"

// keywordDivisor turns a raw hit count into the fallback confidence
// (matches/10, capped at 1). An ad hoc normalization kept for compatibility
// with prior behavior; tune here, not a principled estimate.
const keywordDivisor = 10.0

// FallbackClassify scores the combined lower-cased text against each
// category's term list by occurrence count. The category with the most hits
// wins, ties broken by seed declaration order. Zero hits means nil: the
// article stays uncategorized. Runs in O(terms x text length) and never
// fails.
func FallbackClassify(seeds []CategorySeed, title, abstract string, keywords []string) *Result {
	text := strings.ToLower(title + " " + abstract + " " + strings.Join(keywords, " "))
	if strings.TrimSpace(text) == "" {
		return nil
	}

	bestIdx := -1
	bestHits := 0
	for i, seed := range seeds {
		hits := 0
		for _, term := range seed.Terms {
			hits += strings.Count(text, strings.ToLower(term))
		}
		if hits > bestHits {
			bestIdx = i
			bestHits = hits
		}
	}

	if bestIdx < 0 {
		return nil
	}

	confidence := float64(bestHits) / keywordDivisor
	if confidence > 1 {
		confidence = 1
	}

	seed := seeds[bestIdx]
	return &Result{
		Category: Match{Name: seed.Name, Slug: seed.Slug, Confidence: confidence},
		Method:   MethodKeywords,
	}
}
