package translate

import (
	"strings"
	"unicode"
)

// languageMarkers holds common function words and domain terms per language.
// This is the single canonical word list for the whole module: classification
// and translation both detect through DetectLanguage rather than keeping
// per-component copies that drift apart.
var languageMarkers = map[string][]string{
	"en": {
		"the", "and", "of", "in", "to", "is", "that", "for", "with", "are",
		"study", "research", "results", "analysis", "between", "during",
	},
	"es": {
		"el", "la", "los", "las", "de", "en", "que", "por", "con", "una",
		"estudio", "investigación", "resultados", "entre", "durante", "según",
	},
	"fr": {
		"le", "la", "les", "des", "en", "que", "pour", "avec", "une", "dans",
		"étude", "recherche", "résultats", "entre", "pendant", "selon",
	},
	"de": {
		"der", "die", "das", "und", "ist", "mit", "für", "eine", "von", "nicht",
		"studie", "forschung", "ergebnisse", "zwischen", "während", "wurden",
	},
}

// DetectLanguage scores the text against each language's marker list and
// returns the best-matching language code. Ties and texts with no markers
// default to English.
func DetectLanguage(text string) string {
	words := tokenize(text)
	if len(words) == 0 {
		return "en"
	}

	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}

	best := "en"
	bestScore := 0
	for _, lang := range []string{"en", "es", "fr", "de"} {
		score := 0
		for _, marker := range languageMarkers[lang] {
			if present[marker] {
				score++
			}
		}
		if score > bestScore {
			best = lang
			bestScore = score
		}
	}
	return best
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
