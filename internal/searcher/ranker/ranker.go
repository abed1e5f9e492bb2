// Package ranker scores documents against a parsed query using the unigram
// and bigram TF-IDF indexes. A document's unigram score is divided by its
// unigram length; bigram evidence, where the document has any, is added on
// top as its own length-normalized score.
package ranker

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
)

// PageSize is how many results one page holds.
const PageSize = 20

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Input is everything one ranking needs. Bigrams and BigramLengths may be
// empty.
type Input struct {
	Plan           *parser.QueryPlan
	Unigrams       index.Source
	Bigrams        index.Source
	CorpusSize     int
	UnigramLengths map[string]float64
	BigramLengths  map[string]float64
	// Offset is how many top results to skip, a multiple of the page size.
	Offset int
	// Limit caps the returned page; zero means PageSize.
	Limit int
}

type Result struct {
	Docs []ScoredDoc
	// Total counts every document with a nonzero unigram score, not only
	// the ones on this page.
	Total int
}

// Rank scores, sorts and pages the documents matching in.Plan. Ties are
// broken by ascending document id. A scored document without a unigram
// length means the artifacts are inconsistent and is an error.
func Rank(in Input) (*Result, error) {
	if in.Plan == nil || in.Plan.Empty() || in.Unigrams == nil {
		return &Result{}, nil
	}
	unigram, err := accumulate(in.Unigrams, in.Plan.Terms, in.CorpusSize)
	if err != nil {
		return nil, fmt.Errorf("scoring unigrams: %w", err)
	}
	var bigram map[string]float64
	if in.Bigrams != nil {
		if bigram, err = accumulate(in.Bigrams, in.Plan.Bigrams, in.CorpusSize); err != nil {
			return nil, fmt.Errorf("scoring bigrams: %w", err)
		}
	}

	scored := make([]ScoredDoc, 0, len(unigram))
	for doc, raw := range unigram {
		if raw == 0 {
			continue
		}
		length, ok := in.UnigramLengths[doc]
		if !ok {
			return nil, fmt.Errorf("document %s: %w", doc, apperrors.ErrMissingLength)
		}
		score := divide(raw, length)
		if bl, ok := in.BigramLengths[doc]; ok && bl != 0 {
			score += bigram[doc] / bl
		}
		scored = append(scored, ScoredDoc{DocID: doc, Score: score})
	}

	limit := in.Limit
	if limit <= 0 {
		limit = PageSize
	}
	offset := max(in.Offset, 0)
	res := &Result{Total: len(scored)}
	if offset >= len(scored) {
		return res, nil
	}
	top := topK(scored, offset+min(limit, len(scored)-offset))
	res.Docs = top[offset:]
	return res, nil
}

// accumulate adds ln(n/df) * weight over the postings of every key. Keys
// missing from src contribute nothing, and neither do keys found in every
// document, whose query weight is zero; a FrequencySource skips reading
// either.
func accumulate(src index.Source, keys []string, n int) (map[string]float64, error) {
	scores := make(map[string]float64)
	freq, hasFreq := src.(index.FrequencySource)
	for _, key := range keys {
		if hasFreq {
			if df := freq.DocFreq(key); df == 0 || df == n {
				continue
			}
		}
		postings, err := src.Postings(key)
		if err != nil {
			return nil, fmt.Errorf("reading postings for %q: %w", key, err)
		}
		if len(postings) == 0 {
			continue
		}
		queryWeight := math.Log(float64(n) / float64(len(postings)))
		for _, p := range postings {
			scores[p.DocID] += queryWeight * p.Weight
		}
	}
	return scores, nil
}

// divide normalizes score by length. A zero length leaves the score as is.
func divide(score, length float64) float64 {
	if length == 0 {
		return score
	}
	return score / length
}
