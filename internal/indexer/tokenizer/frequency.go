package tokenizer

import "sort"

// Bigram is an ordered pair of adjacent Terms.
type Bigram struct {
	First  string
	Second string
}

// String renders the bigram as its serialised index key, "first second".
func (b Bigram) String() string {
	return b.First + " " + b.Second
}

// Bigrams returns every adjacent pair of terms in order.
func Bigrams(terms []string) []Bigram {
	if len(terms) < 2 {
		return nil
	}
	pairs := make([]Bigram, 0, len(terms)-1)
	for i := 1; i < len(terms); i++ {
		pairs = append(pairs, Bigram{First: terms[i-1], Second: terms[i]})
	}
	return pairs
}

// ComputeWordFrequencies counts occurrences of each key. It returns a fresh
// map on every call.
func ComputeWordFrequencies[K comparable](keys []K) map[K]int {
	freq := make(map[K]int, len(keys))
	for _, k := range keys {
		freq[k]++
	}
	return freq
}

// AccumulateFrequencies adds the counts of keys into acc.
func AccumulateFrequencies[K comparable](acc map[K]int, keys []K) {
	for _, k := range keys {
		acc[k]++
	}
}

// WordCount is one entry of a sorted frequency report.
type WordCount struct {
	Word  string
	Count int
}

// SortedFrequencies orders freq by descending count, breaking ties by
// ascending key.
func SortedFrequencies(freq map[string]int) []WordCount {
	out := make([]WordCount, 0, len(freq))
	for w, c := range freq {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// TopN returns at most n entries of SortedFrequencies(freq).
func TopN(freq map[string]int, n int) []WordCount {
	sorted := SortedFrequencies(freq)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
