// Package benchmark contains Go benchmarks for tokenization, index builds and
// the query path, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
)

var topics = []string{"informatics", "learning", "vision", "security", "database", "network", "graphics", "compiler"}

// syntheticCorpus holds n generated pages in memory.
type syntheticCorpus struct {
	ids  []string
	docs map[string][]byte
}

func newSyntheticCorpus(n int) *syntheticCorpus {
	c := &syntheticCorpus{docs: make(map[string][]byte, n)}
	for i := range n {
		id := fmt.Sprintf("%d/%d", i/500, i%500)
		a, b, d := topics[i%len(topics)], topics[(i+1)%len(topics)], topics[(i+3)%len(topics)]
		c.ids = append(c.ids, id)
		c.docs[id] = fmt.Appendf(nil,
			`<html><head><title>%s %s</title></head><body><h1>%s research</h1>
			<p>The group studies %s and %s with students across the school.</p>
			<a href="/%s">more about %s</a></body></html>`,
			a, b, a, b, d, d, d)
	}
	return c
}

func (c *syntheticCorpus) DocIDs() ([]string, error) { return c.ids, nil }

func (c *syntheticCorpus) ReadDocument(id string) ([]byte, error) {
	doc, ok := c.docs[id]
	if !ok {
		return nil, apperrors.ErrDocumentNotFound
	}
	return doc, nil
}

// BenchmarkMemoryIndexAppend measures posting insert throughput.
func BenchmarkMemoryIndexAppend(b *testing.B) {
	for _, strict := range []bool{false, true} {
		b.Run(fmt.Sprintf("strict_%v", strict), func(b *testing.B) {
			mi := index.NewMemoryIndex[string](strict)
			b.ReportAllocs()
			i := 0
			for b.Loop() {
				mi.Append(topics[i%len(topics)], index.Posting{DocID: fmt.Sprintf("%d/%d", i/500, i%500), Frequency: 1})
				i++
			}
		})
	}
}

// BenchmarkMemoryIndexSnapshot measures the sorted copy taken before
// artifacts are written.
func BenchmarkMemoryIndexSnapshot(b *testing.B) {
	mi := index.NewMemoryIndex[string](false)
	for i := range 5000 {
		for _, t := range topics {
			mi.Append(fmt.Sprintf("%s%d", t, i%50), index.Posting{DocID: fmt.Sprintf("%d/%d", i/500, i%500), Frequency: 1})
		}
	}
	b.ReportAllocs()
	for b.Loop() {
		_ = mi.Snapshot(func(k string) string { return k })
	}
}

// BenchmarkUnigramBuild measures both passes over corpora of growing size
// with sequential and parallel analysis.
func BenchmarkUnigramBuild(b *testing.B) {
	for _, size := range []int{100, 1000} {
		corpus := newSyntheticCorpus(size)
		for _, workers := range []int{1, 4} {
			b.Run(fmt.Sprintf("docs_%d/workers_%d", size, workers), func(b *testing.B) {
				b.ReportAllocs()
				for b.Loop() {
					_, err := indexer.NewBuilder[string](indexer.Unigram{}, corpus, indexer.Options{Workers: workers}).Build(context.Background())
					if err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkBuildAll includes the bigram build and writing every artifact.
func BenchmarkBuildAll(b *testing.B) {
	corpus := newSyntheticCorpus(500)
	cfg := config.IndexerConfig{DataDir: b.TempDir(), Workers: 4}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := indexer.BuildAll(context.Background(), corpus, cfg, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSegmentPostings measures a dictionary lookup plus posting decode
// from a written segment.
func BenchmarkSegmentPostings(b *testing.B) {
	dir := b.TempDir()
	mi := index.NewMemoryIndex[string](false)
	for i := range 10000 {
		mi.Append(fmt.Sprintf("term%d", i%2000), index.Posting{DocID: fmt.Sprintf("%d/%d", i/500, i%500), Frequency: i%7 + 1, Weight: 0.5})
	}
	if _, err := segment.NewWriter(dir).Write(segment.UnigramSegment, mi.Snapshot(func(k string) string { return k })); err != nil {
		b.Fatal(err)
	}
	r, err := segment.OpenReader(filepath.Join(dir, segment.UnigramSegment))
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		if _, err := r.Postings(fmt.Sprintf("term%d", i%2000)); err != nil {
			b.Fatal(err)
		}
		i++
	}
}
