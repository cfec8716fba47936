// Package similarity provides the shared text normalization, tokenization,
// and set-similarity primitives used by the vector index and the clustering
// engine. Both components must agree on what "the same term" means, so this
// is the only place tokenization and folding are defined.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold normalizes s for equality comparison: NFKC normalization, lowercasing,
// and whitespace trimming. Concept names and cluster names that differ only
// by case or Unicode composition fold to the same string.
func Fold(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// FoldAll folds every entry, drops entries that fold to empty, and removes
// duplicates while preserving first-occurrence order. Input order is the
// relevance order supplied by the concept extractor and must survive.
func FoldAll(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		f := Fold(e)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Tokenize splits text into lowercase terms. A term is a maximal run of
// Unicode letters and digits; everything else is a separator.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TermFrequency counts occurrences of each token.
func TermFrequency(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// Set is a set of folded strings.
type Set map[string]struct{}

// NewSet builds a Set from already-folded members.
func NewSet(members []string) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Contains reports whether m is a member.
func (s Set) Contains(m string) bool {
	_, ok := s[m]
	return ok
}

// Jaccard returns |a∩b| / |a∪b|. Two empty sets have similarity 0.0 rather
// than an error; the zero/zero case is defined, not undefined.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for m := range small {
		if large.Contains(m) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}
