package crawler

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"
)

// Analytics file names, written into the analytics directory.
const (
	SubdomainsFile   = "subdomainsVisited.txt"
	MostOutlinksFile = "pageWithMostOutlinks.txt"
	DownloadedFile   = "downloadedURLs.txt"
	TrapsFile        = "trapURLs.txt"
	LongestPageFile  = "longestPage.txt"
	CommonWordsFile  = "mostCommonWords.txt"
	topWordsReported = 50
)

// PageCount pairs a URL with a count.
type PageCount struct {
	URL   string
	Count int
}

// Report is the end-of-crawl summary.
type Report struct {
	// Subdomains holds one entry per visited host, Word being the host.
	Subdomains []tokenizer.WordCount
	// MostOutlinks is the first page to reach the highest count of queued
	// links. It is unset when no page was fetched.
	MostOutlinks    PageCount
	HasMostOutlinks bool
	Downloaded      []string
	Traps           []string
	Longest         PageCount
	TopWords        []tokenizer.WordCount
}

// stats accumulates what the crawl loop observes. It is only touched by the
// loop goroutine.
type stats struct {
	subdomains   map[string]int
	outlinks     map[string]int
	outlinkOrder []string
	downloaded   []string
	traps        []string
	longest      PageCount
	words        map[string]int
}

func newStats() *stats {
	return &stats{
		subdomains: make(map[string]int),
		outlinks:   make(map[string]int),
		words:      make(map[string]int),
	}
}

func (s *stats) ensurePage(rawURL string) {
	if _, ok := s.outlinks[rawURL]; !ok {
		s.outlinks[rawURL] = 0
		s.outlinkOrder = append(s.outlinkOrder, rawURL)
	}
}

func (s *stats) observePage(rawURL string, words []string) {
	if len(words) > s.longest.Count {
		s.longest = PageCount{URL: rawURL, Count: len(words)}
	}
	tokenizer.AccumulateFrequencies(s.words, tokenizer.Tokenize(words))
}

func (s *stats) report() Report {
	r := Report{
		Subdomains: tokenizer.SortedFrequencies(s.subdomains),
		Downloaded: s.downloaded,
		Traps:      s.traps,
		Longest:    s.longest,
		TopWords:   tokenizer.TopN(s.words, topWordsReported),
	}
	for _, page := range s.outlinkOrder {
		if n := s.outlinks[page]; !r.HasMostOutlinks || n > r.MostOutlinks.Count {
			r.MostOutlinks = PageCount{URL: page, Count: n}
			r.HasMostOutlinks = true
		}
	}
	return r
}

// WriteFiles appends each part of r to its file in dir, one record per line.
func (r Report) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating analytics directory: %w", err)
	}
	files := []struct {
		name  string
		write func(w *bufio.Writer)
	}{
		{SubdomainsFile, func(w *bufio.Writer) {
			for _, s := range r.Subdomains {
				fmt.Fprintf(w, "%s\t%d\n", s.Word, s.Count)
			}
		}},
		{MostOutlinksFile, func(w *bufio.Writer) {
			if r.HasMostOutlinks {
				fmt.Fprintf(w, "%s\n%d outlinks\n", r.MostOutlinks.URL, r.MostOutlinks.Count)
			}
		}},
		{DownloadedFile, func(w *bufio.Writer) {
			for _, u := range r.Downloaded {
				fmt.Fprintln(w, u)
			}
		}},
		{TrapsFile, func(w *bufio.Writer) {
			for _, u := range r.Traps {
				fmt.Fprintln(w, u)
			}
		}},
		{LongestPageFile, func(w *bufio.Writer) {
			fmt.Fprintf(w, "%s\n%d words\n", r.Longest.URL, r.Longest.Count)
		}},
		{CommonWordsFile, func(w *bufio.Writer) {
			for _, wc := range r.TopWords {
				fmt.Fprintf(w, "%s\t%d\n", wc.Word, wc.Count)
			}
		}},
	}
	for _, f := range files {
		if err := appendFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(path string, write func(w *bufio.Writer)) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	write(w)
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return nil
}
