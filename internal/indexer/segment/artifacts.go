package segment

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
)

// Artifact file names inside a data directory.
const (
	UnigramSegment = "index.spdx"
	BigramSegment  = "index2.spdx"
	UnigramJSON    = "index.json"
	BigramJSON     = "index2.json"
	UnigramLengths = "lengths.json"
	BigramLengths  = "lengths2.json"
	CorpusSizeFile = "size.json"
)

// Built is everything one indexer run persists.
type Built struct {
	Unigrams       []index.TermEntry
	Bigrams        []index.TermEntry
	UnigramLengths map[string]float64
	BigramLengths  map[string]float64
	CorpusSize     int
}

// Save writes every artifact of b into dir. With dumpJSON set the two
// indexes are also written as key -> [[doc, frequency, weight], ...] JSON.
func Save(dir string, b Built, dumpJSON bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	w := NewWriter(dir)
	if _, err := w.Write(UnigramSegment, b.Unigrams); err != nil {
		return fmt.Errorf("writing unigram segment: %w", err)
	}
	if _, err := w.Write(BigramSegment, b.Bigrams); err != nil {
		return fmt.Errorf("writing bigram segment: %w", err)
	}
	scalars := []struct {
		name  string
		value any
	}{
		{UnigramLengths, finite(b.UnigramLengths)},
		{BigramLengths, finite(b.BigramLengths)},
		{CorpusSizeFile, b.CorpusSize},
	}
	for _, s := range scalars {
		if err := WriteJSON(filepath.Join(dir, s.name), s.value); err != nil {
			return err
		}
	}
	if dumpJSON {
		if err := WriteJSON(filepath.Join(dir, UnigramJSON), entriesMap(b.Unigrams)); err != nil {
			return err
		}
		if err := WriteJSON(filepath.Join(dir, BigramJSON), entriesMap(b.Bigrams)); err != nil {
			return err
		}
	}
	return nil
}

// finite drops lengths JSON cannot encode. Only a document whose every
// weight is zero has a -Inf length, and such a document never scores.
func finite(lengths map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(lengths))
	for doc, l := range lengths {
		if !math.IsInf(l, 0) && !math.IsNaN(l) {
			out[doc] = l
		}
	}
	return out
}

func entriesMap(entries []index.TermEntry) map[string]index.PostingList {
	m := make(map[string]index.PostingList, len(entries))
	for _, e := range entries {
		m[e.Term] = e.Postings
	}
	return m
}

// Loaded is an opened artifact set. The readers stay open until Close.
type Loaded struct {
	Unigrams       *Reader
	Bigrams        *Reader
	UnigramLengths map[string]float64
	BigramLengths  map[string]float64
	CorpusSize     int
}

// Load opens the artifacts Save wrote to dir.
func Load(dir string) (*Loaded, error) {
	l := &Loaded{}
	var err error
	if l.Unigrams, err = OpenReader(filepath.Join(dir, UnigramSegment)); err != nil {
		return nil, fmt.Errorf("opening unigram segment: %w", err)
	}
	if l.Bigrams, err = OpenReader(filepath.Join(dir, BigramSegment)); err != nil {
		l.Close()
		return nil, fmt.Errorf("opening bigram segment: %w", err)
	}
	if err := ReadJSON(filepath.Join(dir, UnigramLengths), &l.UnigramLengths); err != nil {
		l.Close()
		return nil, err
	}
	if err := ReadJSON(filepath.Join(dir, BigramLengths), &l.BigramLengths); err != nil {
		l.Close()
		return nil, err
	}
	if err := ReadJSON(filepath.Join(dir, CorpusSizeFile), &l.CorpusSize); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Close releases both segment readers.
func (l *Loaded) Close() error {
	var first error
	for _, r := range []*Reader{l.Unigrams, l.Bigrams} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteJSON atomically replaces path with v encoded as JSON.
func WriteJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
