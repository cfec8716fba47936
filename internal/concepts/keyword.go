package concepts

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/hyperjump/matome/internal/similarity"
)

// DefaultMaxConcepts is the number of concepts the keyword extractor returns.
const DefaultMaxConcepts = 8

// stopwords excluded from concept candidates. Common English function words;
// domain terms are never filtered.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"how": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "not": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "their": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// KeywordExtractor is the deterministic default extractor: tokens ranked by
// frequency, ties broken by first occurrence. It stands in for an LLM-backed
// extractor behind the same interface.
type KeywordExtractor struct {
	maxConcepts int
}

// NewKeywordExtractor creates an extractor returning up to maxConcepts
// concepts. Zero or negative means DefaultMaxConcepts.
func NewKeywordExtractor(maxConcepts int) *KeywordExtractor {
	if maxConcepts <= 0 {
		maxConcepts = DefaultMaxConcepts
	}
	return &KeywordExtractor{maxConcepts: maxConcepts}
}

// Extract returns the most frequent non-stopword tokens, most relevant
// first. Single-rune tokens are dropped. Deterministic for a given text.
func (k *KeywordExtractor) Extract(_ context.Context, text string) ([]string, error) {
	tokens := similarity.Tokenize(text)

	type candidate struct {
		term  string
		count int
		first int
	}
	byTerm := make(map[string]*candidate)
	order := make([]*candidate, 0)
	for i, t := range tokens {
		if utf8.RuneCountInString(t) < 2 {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		c, ok := byTerm[t]
		if !ok {
			c = &candidate{term: t, first: i}
			byTerm[t] = c
			order = append(order, c)
		}
		c.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	n := k.maxConcepts
	if n > len(order) {
		n = len(order)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = order[i].term
	}
	return out, nil
}
