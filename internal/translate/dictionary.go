package translate

import (
	"context"
	"strings"
	"unicode"
)

// DictionaryProvider is the deterministic last resort of the chain: known
// words are substituted from small built-in dictionaries, everything else
// passes through unchanged. Always available, lowest confidence.
type DictionaryProvider struct{}

var _ Provider = (*DictionaryProvider)(nil)

// NewDictionaryProvider creates the fallback provider.
func NewDictionaryProvider() *DictionaryProvider {
	return &DictionaryProvider{}
}

func (p *DictionaryProvider) Name() string              { return "dictionary" }
func (p *DictionaryProvider) Confidence() float64       { return 0.6 }
func (p *DictionaryProvider) Available() bool           { return true }
func (p *DictionaryProvider) Supports(_, _ string) bool { return true }

// dictionaries maps "source>target" to word substitutions. Lookups are
// lower-cased; matching is whole-word only.
var dictionaries = map[string]map[string]string{
	"es>en": {
		"estudio":       "study",
		"investigación": "research",
		"resultados":    "results",
		"artículo":      "article",
		"ciencia":       "science",
		"células":       "cells",
		"análisis":      "analysis",
		"datos":         "data",
		"método":        "method",
		"nuevo":         "new",
		"nueva":         "new",
	},
	"fr>en": {
		"étude":     "study",
		"recherche": "research",
		"résultats": "results",
		"article":   "article",
		"science":   "science",
		"cellules":  "cells",
		"analyse":   "analysis",
		"données":   "data",
		"méthode":   "method",
		"nouveau":   "new",
		"nouvelle":  "new",
	},
	"de>en": {
		"studie":       "study",
		"forschung":    "research",
		"ergebnisse":   "results",
		"artikel":      "article",
		"wissenschaft": "science",
		"zellen":       "cells",
		"analyse":      "analysis",
		"daten":        "data",
		"methode":      "method",
		"neue":         "new",
	},
}

// Translate substitutes dictionary words and leaves the rest untouched. A
// missing dictionary for the pair degrades to a pass-through, never an error.
func (p *DictionaryProvider) Translate(_ context.Context, text, source, target string) (string, error) {
	dict := dictionaries[source+">"+target]
	if len(dict) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))

	word := strings.Builder{}
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if replacement, ok := dict[strings.ToLower(w)]; ok {
			b.WriteString(matchCase(w, replacement))
		} else {
			b.WriteString(w)
		}
		word.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || r == '\'' {
			word.WriteRune(r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()

	return b.String(), nil
}

// matchCase capitalizes the replacement when the original word was
// capitalized.
func matchCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}
	first := []rune(original)[0]
	if unicode.IsUpper(first) {
		rs := []rune(replacement)
		rs[0] = unicode.ToUpper(rs[0])
		return string(rs)
	}
	return replacement
}
