package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
)

// BenchmarkQueryParse measures query parsing for queries of varying length.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"single", "informatics"},
		{"pair", "machine learning"},
		{"mixed_case", "  Machine   LEARNING Research "},
		{"long", "donald bren school information computer sciences machine learning computer vision security"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = parser.Parse(q.query)
			}
		})
	}
}

// rankInput builds in-memory sources where every document holds every
// query term and pair.
func rankInput(terms []string, numDocs int) ranker.Input {
	uni := make(index.Table, len(terms))
	bi := make(index.Table)
	uniLengths := make(map[string]float64, numDocs)
	biLengths := make(map[string]float64, numDocs)
	plan := parser.Parse(strings.Join(terms, " "))
	for _, t := range terms {
		pl := make(index.PostingList, numDocs)
		for i := range numDocs {
			pl[i] = index.Posting{DocID: fmt.Sprintf("%d/%d", i/500, i%500), Frequency: i%10 + 1, Weight: 0.1 + float64(i%10)/10}
		}
		uni[t] = pl
	}
	for _, bg := range plan.Bigrams {
		pl := make(index.PostingList, numDocs/2)
		for i := range numDocs / 2 {
			pl[i] = index.Posting{DocID: fmt.Sprintf("%d/%d", i/500, i%500), Frequency: 1, Weight: 0.3}
		}
		bi[bg] = pl
	}
	for i := range numDocs {
		id := fmt.Sprintf("%d/%d", i/500, i%500)
		uniLengths[id] = 0.8
		biLengths[id] = 0.4
	}
	return ranker.Input{
		Plan:           plan,
		Unigrams:       uni,
		Bigrams:        bi,
		CorpusSize:     numDocs * 2,
		UnigramLengths: uniLengths,
		BigramLengths:  biLengths,
		Limit:          ranker.PageSize,
	}
}

// BenchmarkRank measures scoring and top-k selection for growing posting
// lists.
func BenchmarkRank(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			in := rankInput([]string{"machine", "learning"}, numDocs)
			b.ReportAllocs()
			for b.Loop() {
				if _, err := ranker.Rank(in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRankMultiTerm measures ranking with an increasing number of query
// terms.
func BenchmarkRankMultiTerm(b *testing.B) {
	for _, tc := range []int{1, 3, 5, 10} {
		b.Run(fmt.Sprintf("terms_%d", tc), func(b *testing.B) {
			terms := make([]string, tc)
			for i := range terms {
				terms[i] = fmt.Sprintf("term%d", i)
			}
			in := rankInput(terms, 500)
			b.ReportAllocs()
			for b.Loop() {
				if _, err := ranker.Rank(in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkExecutor runs the full query path against built artifacts,
// snippets included.
func BenchmarkExecutor(b *testing.B) {
	corpusDir, dataDir := b.TempDir(), b.TempDir()
	store, err := corpus.Create(corpusDir)
	if err != nil {
		b.Fatal(err)
	}
	synth := newSyntheticCorpus(1000)
	for i, id := range synth.ids {
		got := store.Reserve(fmt.Sprintf("https://www.ics.uci.edu/page%d.html", i))
		if err := store.Put(got, synth.docs[id]); err != nil {
			b.Fatal(err)
		}
	}
	if err := store.Flush(); err != nil {
		b.Fatal(err)
	}
	if _, err := indexer.BuildAll(context.Background(), store, config.IndexerConfig{DataDir: dataDir, Workers: 4}, nil); err != nil {
		b.Fatal(err)
	}

	exec := executor.New(executor.Config{DataDir: dataDir, CorpusDir: corpusDir, PageSize: 20, SnippetLength: 300})
	if err := exec.Reload(context.Background()); err != nil {
		b.Fatal(err)
	}
	defer exec.Close()

	plans := []*parser.QueryPlan{
		parser.Parse("informatics"),
		parser.Parse("learning research"),
		parser.Parse("security network compiler"),
	}
	b.ReportAllocs()
	i := 0
	for b.Loop() {
		if _, err := exec.Execute(context.Background(), plans[i%len(plans)], 0); err != nil {
			b.Fatal(err)
		}
		i++
	}
}
