package indexer

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

// mapCorpus serves documents from memory; ids listed without content are
// unreadable.
type mapCorpus struct {
	ids  []string
	docs map[string]string
}

func (c mapCorpus) DocIDs() ([]string, error) { return c.ids, nil }

func (c mapCorpus) ReadDocument(id string) ([]byte, error) {
	doc, ok := c.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, apperrors.ErrDocumentNotFound)
	}
	return []byte(doc), nil
}

func sampleCorpus() mapCorpus {
	return mapCorpus{
		ids: []string{"0/0", "0/1", "0/2"},
		docs: map[string]string{
			"0/0": `<html><head><title>zebra</title></head><body><p>zebra graph graph</p></body></html>`,
			"0/1": `<html><body><p>graph</p><a href="/p">python</a></body></html>`,
		},
	}
}

const eps = 1e-12

func TestUnigramBuild(t *testing.T) {
	m := metrics.New()
	res, err := NewBuilder[string](Unigram{}, sampleCorpus(), Options{Workers: 1, Metrics: m}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.CorpusSize != 2 || res.Scanned != 2 || res.Skipped != 1 {
		t.Fatalf("CorpusSize=%d Scanned=%d Skipped=%d", res.CorpusSize, res.Scanned, res.Skipped)
	}

	// zebra: two visible occurrences plus the title bonus of 3.
	zebra := res.Index.Get("zebra")
	if len(zebra) != 1 || zebra[0].DocID != "0/0" || zebra[0].Frequency != 5 {
		t.Fatalf("zebra postings = %+v", zebra)
	}
	if want := TF(5) * math.Log10(2); math.Abs(zebra[0].Weight-want) > eps {
		t.Errorf("zebra weight = %v, want %v", zebra[0].Weight, want)
	}

	// graph occurs in every document, so idf and weight are zero.
	graph := res.Index.Get("graph")
	if len(graph) != 2 || graph[0].DocID != "0/0" || graph[1].DocID != "0/1" {
		t.Fatalf("graph postings = %+v", graph)
	}
	for _, p := range graph {
		if p.Weight != 0 {
			t.Errorf("graph weight in %s = %v", p.DocID, p.Weight)
		}
	}
	if res.DocFreq["graph"] != 2 || res.DocFreq["zebra"] != 1 {
		t.Errorf("DocFreq = %v", res.DocFreq)
	}

	// python sits in an anchor: one occurrence plus the anchor bonus of 2.
	python := res.Index.Get("python")
	if len(python) != 1 || python[0].Frequency != 3 {
		t.Fatalf("python postings = %+v", python)
	}

	if want := math.Log10(zebra[0].Weight); math.Abs(res.Lengths["0/0"]-want) > eps {
		t.Errorf("length 0/0 = %v, want %v", res.Lengths["0/0"], want)
	}
	if want := math.Log10(python[0].Weight); math.Abs(res.Lengths["0/1"]-want) > eps {
		t.Errorf("length 0/1 = %v, want %v", res.Lengths["0/1"], want)
	}
	if _, ok := res.Lengths["0/2"]; ok {
		t.Error("skipped document has a length")
	}
}

func TestBigramBuild(t *testing.T) {
	res, err := NewBuilder[tokenizer.Bigram](Bigram{}, sampleCorpus(), Options{Workers: 2}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	entries := res.Index.Snapshot(Bigram{}.String)
	var terms []string
	for _, e := range entries {
		terms = append(terms, e.Term)
	}
	want := []string{"graph graph", "graph python", "zebra graph", "zebra zebra"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("bigram keys = %v, want %v", terms, want)
	}
	if res.CorpusSize != 2 {
		t.Errorf("CorpusSize = %d", res.CorpusSize)
	}
	got := res.Index.Get(tokenizer.Bigram{First: "zebra", Second: "graph"})
	if len(got) != 1 || got[0].Frequency != 1 {
		t.Errorf("zebra graph postings = %+v", got)
	}
}

func TestParallelScanMatchesSequential(t *testing.T) {
	words := []string{"zebra", "graph", "python", "uci", "lion", "tiger", "river"}
	c := mapCorpus{docs: make(map[string]string)}
	for i := range 120 {
		id := fmt.Sprintf("%d/%d", i/50, i%50)
		c.ids = append(c.ids, id)
		body := ""
		for j := range i%5 + 2 {
			body += words[(i*3+j*j)%len(words)] + " "
		}
		c.docs[id] = "<title>" + words[i%len(words)] + "</title><p>" + body + "</p>"
	}

	build := func(workers int) *Result[string] {
		res, err := NewBuilder[string](Unigram{}, c, Options{Workers: workers}).Build(context.Background())
		if err != nil {
			t.Fatalf("Build(workers=%d): %v", workers, err)
		}
		return res
	}
	seq, par := build(1), build(8)
	if !reflect.DeepEqual(seq.Index.Snapshot(Unigram{}.String), par.Index.Snapshot(Unigram{}.String)) {
		t.Error("parallel postings differ from sequential")
	}
	if !reflect.DeepEqual(seq.Lengths, par.Lengths) {
		t.Error("parallel lengths differ from sequential")
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBuilder[string](Unigram{}, sampleCorpus(), Options{Workers: 2}).Build(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNoAdjacentDuplicatePostings(t *testing.T) {
	res, err := NewBuilder[string](Unigram{}, sampleCorpus(), Options{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	res.Index.Range(func(key string, list index.PostingList) {
		for i := 1; i < len(list); i++ {
			if list[i].DocID == list[i-1].DocID {
				t.Errorf("%q has adjacent postings for %s", key, list[i].DocID)
			}
		}
	})
}

func TestBuildAllSavesArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := config.IndexerConfig{DataDir: dir, Workers: 2}
	s, err := BuildAll(context.Background(), sampleCorpus(), cfg, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if s.CorpusSize != 2 || s.UnigramKeys != 3 || s.BigramKeys != 4 || s.Skipped != 1 {
		t.Errorf("summary = %+v", s)
	}

	l, err := segment.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer l.Close()
	if l.CorpusSize != 2 {
		t.Errorf("CorpusSize = %d", l.CorpusSize)
	}
	list, err := l.Bigrams.Postings("zebra graph")
	if err != nil || len(list) != 1 || list[0].DocID != "0/0" {
		t.Errorf("zebra graph = %v, %v", list, err)
	}
	list, err = l.Unigrams.Postings("graph")
	if err != nil || len(list) != 2 {
		t.Errorf("graph = %v, %v", list, err)
	}

	event := NewIndexCompleteEvent(s)
	if event.BuildID == "" || event.DataDir != dir || event.CorpusSize != 2 {
		t.Errorf("event = %+v", event)
	}
}
