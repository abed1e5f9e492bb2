package index

import (
	"encoding/json"
	"fmt"
)

// Posting records one document's occurrence of a key. Frequency is the raw
// tag-weighted count fixed in pass 1; Weight stays zero until pass 2 writes
// the TF-IDF score.
type Posting struct {
	DocID     string
	Frequency int
	Weight    float64
}

// MarshalJSON encodes the posting as the triple [docID, frequency, weight].
func (p Posting) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{p.DocID, p.Frequency, p.Weight})
}

// UnmarshalJSON decodes the triple form written by MarshalJSON.
func (p *Posting) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding posting: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("decoding posting: want 3 fields, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.DocID); err != nil {
		return fmt.Errorf("decoding posting doc id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Frequency); err != nil {
		return fmt.Errorf("decoding posting frequency: %w", err)
	}
	if err := json.Unmarshal(raw[2], &p.Weight); err != nil {
		return fmt.Errorf("decoding posting weight: %w", err)
	}
	return nil
}

// PostingList holds a key's postings in first-encountered document order.
type PostingList []Posting

// TermEntry pairs a serialised key with its postings.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// Source is a keyed collection of postings lists. Both Table and an on-disk
// segment satisfy it. A missing key yields a nil list and a nil error.
type Source interface {
	Postings(key string) (PostingList, error)
}

// FrequencySource is a Source that knows each key's document frequency
// without reading its postings.
type FrequencySource interface {
	Source
	DocFreq(key string) int
}
