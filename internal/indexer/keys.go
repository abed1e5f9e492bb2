package indexer

import "github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/tokenizer"

// KeyDeriver turns a document's term sequence into index keys. The two
// builds differ only in this step and in how keys are serialised.
type KeyDeriver[K comparable] interface {
	// Kind names the index in logs, metrics and artifact names.
	Kind() string
	Keys(terms []string) []K
	String(key K) string
}

// Unigram keys every term by itself.
type Unigram struct{}

func (Unigram) Kind() string { return "unigram" }

func (Unigram) Keys(terms []string) []string { return terms }

func (Unigram) String(key string) string { return key }

// Bigram keys every adjacent pair of terms; a pair is serialised as
// "first second".
type Bigram struct{}

func (Bigram) Kind() string { return "bigram" }

func (Bigram) Keys(terms []string) []tokenizer.Bigram { return tokenizer.Bigrams(terms) }

func (Bigram) String(key tokenizer.Bigram) string { return key.String() }
