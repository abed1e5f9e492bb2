package index

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAppendComparesToLast(t *testing.T) {
	m := NewMemoryIndex[string](false)
	if !m.Append("uci", Posting{DocID: "0/1", Frequency: 2}) {
		t.Fatal("first append rejected")
	}
	if m.Append("uci", Posting{DocID: "0/1", Frequency: 9}) {
		t.Error("adjacent duplicate appended")
	}
	m.Append("uci", Posting{DocID: "0/2", Frequency: 1})
	// Not adjacent to the earlier 0/1 posting, so it is kept.
	if !m.Append("uci", Posting{DocID: "0/1", Frequency: 4}) {
		t.Error("non-adjacent duplicate rejected in compare-to-last mode")
	}

	want := PostingList{{"0/1", 2, 0}, {"0/2", 1, 0}, {"0/1", 4, 0}}
	if got := m.Get("uci"); !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestAppendStrict(t *testing.T) {
	m := NewMemoryIndex[string](true)
	m.Append("uci", Posting{DocID: "0/1", Frequency: 2})
	m.Append("uci", Posting{DocID: "0/2", Frequency: 1})
	if m.Append("uci", Posting{DocID: "0/1", Frequency: 4}) {
		t.Error("strict mode appended a repeated document")
	}
	if n := len(m.Get("uci")); n != 2 {
		t.Errorf("len = %d, want 2", n)
	}
}

func TestNoAdjacentDuplicateDocIDs(t *testing.T) {
	m := NewMemoryIndex[string](false)
	docs := []string{"0/0", "0/0", "0/1", "0/1", "0/1", "0/2", "0/0", "0/0"}
	for _, d := range docs {
		m.Append("ics", Posting{DocID: d, Frequency: 1})
		m.Append("edu", Posting{DocID: d, Frequency: 1})
	}
	m.Range(func(key string, list PostingList) {
		for i := 1; i < len(list); i++ {
			if list[i].DocID == list[i-1].DocID {
				t.Errorf("key %q: adjacent postings share %q", key, list[i].DocID)
			}
		}
	})
}

func TestKeysKeepFirstSeenOrder(t *testing.T) {
	m := NewMemoryIndex[string](false)
	for _, k := range []string{"zeta", "alpha", "zeta", "mid"} {
		m.Append(k, Posting{DocID: "0/" + k, Frequency: 1})
	}
	var keys []string
	m.Range(func(key string, _ PostingList) { keys = append(keys, key) })
	if !reflect.DeepEqual(keys, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("Range order = %v", keys)
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d", m.Len())
	}
}

func TestRangeUpdatesWeightsInPlace(t *testing.T) {
	m := NewMemoryIndex[string](false)
	m.Append("uci", Posting{DocID: "0/1", Frequency: 1})
	m.Range(func(_ string, list PostingList) {
		list[0].Weight = 1.5
	})
	if w := m.Get("uci")[0].Weight; w != 1.5 {
		t.Errorf("Weight = %v", w)
	}
}

func TestSnapshotSortedAndCopied(t *testing.T) {
	type pair struct{ a, b string }
	m := NewMemoryIndex[pair](false)
	m.Append(pair{"uci", "edu"}, Posting{DocID: "0/1", Frequency: 1})
	m.Append(pair{"ics", "uci"}, Posting{DocID: "0/1", Frequency: 2})
	str := func(p pair) string { return p.a + " " + p.b }

	snap := m.Snapshot(str)
	if len(snap) != 2 || snap[0].Term != "ics uci" || snap[1].Term != "uci edu" {
		t.Fatalf("Snapshot = %+v", snap)
	}
	snap[0].Postings[0].Weight = 99
	if m.Get(pair{"ics", "uci"})[0].Weight != 0 {
		t.Error("Snapshot aliases index storage")
	}

	table := m.Table(str)
	list, err := table.Postings("uci edu")
	if err != nil || len(list) != 1 {
		t.Errorf("Table.Postings = %v, %v", list, err)
	}
	if list, _ := table.Postings("missing"); list != nil {
		t.Errorf("missing key = %v", list)
	}
}

func TestDocIDs(t *testing.T) {
	m := NewMemoryIndex[string](false)
	m.Append("a1", Posting{DocID: "0/1", Frequency: 1})
	m.Append("b2", Posting{DocID: "0/1", Frequency: 1})
	m.Append("b2", Posting{DocID: "3/9", Frequency: 1})
	if got := len(m.DocIDs()); got != 2 {
		t.Errorf("DocIDs = %d, want 2", got)
	}
}

func TestPostingJSONTriple(t *testing.T) {
	data, err := json.Marshal(Posting{DocID: "0/1", Frequency: 3, Weight: 0.42})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["0/1",3,0.42]` {
		t.Errorf("Marshal = %s", data)
	}
	var p Posting
	if err := json.Unmarshal([]byte(`["12/40", 1, 0]`), &p); err != nil {
		t.Fatal(err)
	}
	if p != (Posting{DocID: "12/40", Frequency: 1}) {
		t.Errorf("Unmarshal = %+v", p)
	}
	if err := json.Unmarshal([]byte(`["0/1", 1]`), &p); err == nil {
		t.Error("expected error for short triple")
	}
}
