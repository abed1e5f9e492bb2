// Package parser turns a raw query string into the keys looked up in the
// unigram and bigram indexes. Query words are only lower-cased and split on
// whitespace; they are not lemmatised.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"
)

type QueryPlan struct {
	RawQuery string
	// Terms keeps query order and repeats.
	Terms []string
	// Bigrams are the adjacent pairs of Terms, as "first second".
	Bigrams []string
}

func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		RawQuery: query,
		Terms:    strings.Fields(strings.ToLower(query)),
	}
	for _, pair := range tokenizer.Bigrams(plan.Terms) {
		plan.Bigrams = append(plan.Bigrams, pair.String())
	}
	return plan
}

// Empty reports whether the query has no terms at all.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Normalized is the query as the ranker sees it, terms joined by one space.
// Queries with the same Normalized form rank identically.
func (p *QueryPlan) Normalized() string {
	return strings.Join(p.Terms, " ")
}
