package index

import (
	"sort"
	"sync"
)

// MemoryIndex is an inverted index under construction, keyed by K. Keys keep
// their first-seen order so every pass over the index is deterministic.
type MemoryIndex[K comparable] struct {
	mu     sync.RWMutex
	lists  map[K]PostingList
	order  []K
	strict bool
	seen   map[K]map[string]struct{}
}

// NewMemoryIndex creates an empty index. With strict set, duplicate
// suppression checks every posting of the key instead of only the last one.
func NewMemoryIndex[K comparable](strict bool) *MemoryIndex[K] {
	m := &MemoryIndex[K]{
		lists:  make(map[K]PostingList),
		strict: strict,
	}
	if strict {
		m.seen = make(map[K]map[string]struct{})
	}
	return m
}

// Append adds p to key's postings list unless the list already ends with a
// posting for the same document. It reports whether p was appended.
func (m *MemoryIndex[K]) Append(key K, p Posting) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, exists := m.lists[key]
	if !exists {
		m.order = append(m.order, key)
	}
	if m.strict {
		docs := m.seen[key]
		if docs == nil {
			docs = make(map[string]struct{})
			m.seen[key] = docs
		}
		if _, dup := docs[p.DocID]; dup {
			return false
		}
		docs[p.DocID] = struct{}{}
	} else if n := len(list); n > 0 && list[n-1].DocID == p.DocID {
		return false
	}
	m.lists[key] = append(list, p)
	return true
}

// Get returns key's postings list. The slice aliases the index storage.
func (m *MemoryIndex[K]) Get(key K) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lists[key]
}

// Len returns the number of distinct keys.
func (m *MemoryIndex[K]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Range calls fn for every key in first-seen order. fn may update posting
// weights in place but must not append.
func (m *MemoryIndex[K]) Range(fn func(key K, list PostingList)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, k := range m.order {
		fn(k, m.lists[k])
	}
}

// DocIDs returns the set of distinct document identifiers in any list.
func (m *MemoryIndex[K]) DocIDs() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make(map[string]struct{})
	for _, list := range m.lists {
		for _, p := range list {
			docs[p.DocID] = struct{}{}
		}
	}
	return docs
}

// Snapshot returns the index as term entries sorted by serialised key.
func (m *MemoryIndex[K]) Snapshot(keyString func(K) string) []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.order))
	for _, k := range m.order {
		postings := make(PostingList, len(m.lists[k]))
		copy(postings, m.lists[k])
		entries = append(entries, TermEntry{
			Term:     keyString(k),
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Table returns a read-only string-keyed view of the index.
func (m *MemoryIndex[K]) Table(keyString func(K) string) Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := make(Table, len(m.order))
	for _, k := range m.order {
		t[keyString(k)] = m.lists[k]
	}
	return t
}

// Table is a finished, read-only inverted index keyed by serialised key.
type Table map[string]PostingList

// Postings implements Source.
func (t Table) Postings(key string) (PostingList, error) {
	return t[key], nil
}

// DocFreq implements FrequencySource.
func (t Table) DocFreq(key string) int {
	return len(t[key])
}
