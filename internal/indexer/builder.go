// Package indexer builds the unigram and bigram inverted indexes over a
// stored corpus. Both builds share one batch pipeline, scan, document
// frequency, score and normalize, each phase finishing before the next.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/metrics"
)

// Corpus is the stored page collection an index is built from.
type Corpus interface {
	// DocIDs lists every document in scan order.
	DocIDs() ([]string, error)
	// ReadDocument returns the stored bytes for id.
	ReadDocument(id string) ([]byte, error)
}

type tagWeight struct {
	tag    string
	weight int
}

// tagWeights adds a bonus to the raw frequency of every key found inside
// one of these elements.
var tagWeights = []tagWeight{
	{"title", 3},
	{"h1", 3},
	{"h2", 2},
	{"a", 2},
	{"h3", 1},
	{"b", 1},
}

// Options tune a build.
type Options struct {
	// Workers bounds concurrent document analysis in pass 1. Zero means
	// GOMAXPROCS; one runs sequentially.
	Workers int
	// StrictDedup suppresses a duplicate posting wherever it sits in the
	// list instead of only when it is the last entry.
	StrictDedup bool
	Metrics     *metrics.Metrics
}

// Result is a finished index with its statistics.
type Result[K comparable] struct {
	Index      *index.MemoryIndex[K]
	DocFreq    map[K]int
	CorpusSize int
	Lengths    map[string]float64
	Scanned    int
	Skipped    int
}

// Builder runs the two-pass build for one key type.
type Builder[K comparable] struct {
	keys   KeyDeriver[K]
	corpus Corpus
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a Builder deriving keys with keys.
func NewBuilder[K comparable](keys KeyDeriver[K], corpus Corpus, opts Options) *Builder[K] {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Builder[K]{
		keys:   keys,
		corpus: corpus,
		opts:   opts,
		logger: slog.Default().With("component", "indexer", "kind", keys.Kind()),
	}
}

// Build scans the corpus and returns the weighted index. Only a corpus that
// cannot be listed, or a cancelled ctx, is an error.
func (b *Builder[K]) Build(ctx context.Context) (*Result[K], error) {
	start := time.Now()
	ids, err := b.corpus.DocIDs()
	if err != nil {
		return nil, fmt.Errorf("listing corpus: %w", err)
	}

	res := &Result[K]{Index: index.NewMemoryIndex[K](b.opts.StrictDedup)}
	if err := b.scan(ctx, ids, res); err != nil {
		return nil, err
	}
	res.DocFreq = documentFrequencies(res.Index)
	res.CorpusSize = len(res.Index.DocIDs())
	res.Lengths = score(res.Index, res.DocFreq, res.CorpusSize)
	normalize(res.Lengths)

	elapsed := time.Since(start)
	if m := b.opts.Metrics; m != nil {
		m.IndexBuildDuration.WithLabelValues(b.keys.Kind()).Observe(elapsed.Seconds())
		m.IndexKeys.WithLabelValues(b.keys.Kind()).Set(float64(res.Index.Len()))
	}
	b.logger.Info("index built",
		"keys", res.Index.Len(),
		"corpus_size", res.CorpusSize,
		"scanned", res.Scanned,
		"skipped", res.Skipped,
		"elapsed", elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// analysis is pass 1's per-document output: keys in text order plus their
// tag-boosted raw frequencies.
type analysis[K comparable] struct {
	keys []K
	raw  map[K]int
	ok   bool
}

// scan is pass 1. Documents are analysed concurrently in batches, then merged
// into the index strictly in corpus order, so postings order and duplicate
// suppression match a sequential scan.
func (b *Builder[K]) scan(ctx context.Context, ids []string, res *Result[K]) error {
	batch := b.opts.Workers * 16
	results := make([]analysis[K], batch)
	for lo := 0; lo < len(ids); lo += batch {
		hi := min(lo+batch, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.opts.Workers)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i-lo] = b.analyze(ids[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("scanning corpus: %w", err)
		}
		for i := lo; i < hi; i++ {
			a := results[i-lo]
			b.merge(ids[i], a, res)
			results[i-lo] = analysis[K]{}
		}
		b.logger.Debug("scan progress", "documents", hi, "total", len(ids))
	}
	return nil
}

func (b *Builder[K]) merge(id string, a analysis[K], res *Result[K]) {
	kind := b.keys.Kind()
	if !a.ok {
		res.Skipped++
		if m := b.opts.Metrics; m != nil {
			m.DocsSkippedTotal.WithLabelValues(kind).Inc()
		}
		return
	}
	res.Scanned++
	if m := b.opts.Metrics; m != nil {
		m.DocsIndexedTotal.WithLabelValues(kind).Inc()
	}
	for _, key := range a.keys {
		res.Index.Append(key, index.Posting{DocID: id, Frequency: a.raw[key]})
	}
}

// analyze reads and tokenizes one document. Unreadable documents are logged
// and reported with ok false.
func (b *Builder[K]) analyze(id string) analysis[K] {
	content, err := b.corpus.ReadDocument(id)
	if err != nil {
		b.logger.Warn("skipping unreadable document", "doc_id", id, "error", err)
		return analysis[K]{}
	}
	doc, err := markup.ParseBytes(content)
	if err != nil {
		b.logger.Warn("skipping unparseable document", "doc_id", id, "error", err)
		return analysis[K]{}
	}
	keys := b.keys.Keys(tokenizer.TokenizeText(doc.Text(" ")))
	raw := tokenizer.ComputeWordFrequencies(keys)
	for _, tw := range tagWeights {
		var words []string
		for _, text := range doc.FindAll(tw.tag) {
			words = append(words, tokenizer.Words(text)...)
		}
		for _, key := range b.keys.Keys(tokenizer.Tokenize(words)) {
			raw[key] += tw.weight
		}
	}
	return analysis[K]{keys: keys, raw: raw, ok: true}
}

func documentFrequencies[K comparable](idx *index.MemoryIndex[K]) map[K]int {
	df := make(map[K]int, idx.Len())
	idx.Range(func(key K, list index.PostingList) {
		df[key] = len(list)
	})
	return df
}

// score is pass 2: it writes every posting's weight and returns each
// document's summed squared weights.
func score[K comparable](idx *index.MemoryIndex[K], df map[K]int, n int) map[string]float64 {
	lengths := make(map[string]float64)
	idx.Range(func(key K, list index.PostingList) {
		d := df[key]
		for i := range list {
			w := TFIDF(list[i].Frequency, d, n)
			list[i].Weight = w
			lengths[list[i].DocID] += w * w
		}
	})
	return lengths
}

func normalize(lengths map[string]float64) {
	for doc, sum := range lengths {
		lengths[doc] = normalizeLength(sum)
	}
}
