package relevance

import (
	"strings"
	"unicode"
)

// defaultStopwords is the fixed small set dropped during tokenization.
var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "in", "is", "it", "its", "of", "on", "or", "that", "the",
	"this", "to", "was", "were", "will", "with",
}

// tokenize lowercases text, splits on non-alphanumeric runes, and drops
// tokens shorter than two runes plus stopwords.
func tokenize(text string, stop map[string]struct{}) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, skip := stop[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// termCounts folds tokens into a frequency map.
func termCounts(tokens []string) (map[string]int, int) {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	return counts, len(tokens)
}

func stopwordSet(words []string) map[string]struct{} {
	if words == nil {
		words = defaultStopwords
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
