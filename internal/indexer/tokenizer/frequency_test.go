package tokenizer

import (
	"reflect"
	"testing"
)

func TestComputeWordFrequenciesReturnsFreshMap(t *testing.T) {
	first := ComputeWordFrequencies([]string{"uci", "ics", "uci"})
	second := ComputeWordFrequencies([]string{"ics"})
	if !reflect.DeepEqual(first, map[string]int{"uci": 2, "ics": 1}) {
		t.Errorf("first = %#v", first)
	}
	if !reflect.DeepEqual(second, map[string]int{"ics": 1}) {
		t.Errorf("second call leaked state: %#v", second)
	}
}

func TestComputeWordFrequenciesBigrams(t *testing.T) {
	pairs := Bigrams([]string{"machine", "learning", "machine", "learning"})
	freq := ComputeWordFrequencies(pairs)
	if got := freq[Bigram{"machine", "learning"}]; got != 2 {
		t.Errorf("machine learning = %d, want 2", got)
	}
	if got := freq[Bigram{"learning", "machine"}]; got != 1 {
		t.Errorf("learning machine = %d, want 1", got)
	}
}

func TestAccumulateFrequencies(t *testing.T) {
	acc := make(map[string]int)
	AccumulateFrequencies(acc, []string{"a1", "b2"})
	AccumulateFrequencies(acc, []string{"a1"})
	if !reflect.DeepEqual(acc, map[string]int{"a1": 2, "b2": 1}) {
		t.Errorf("acc = %#v", acc)
	}
}

func TestBigrams(t *testing.T) {
	if got := Bigrams([]string{"only"}); got != nil {
		t.Errorf("Bigrams of one term = %#v", got)
	}
	got := Bigrams([]string{"x1", "y2", "z3"})
	want := []Bigram{{"x1", "y2"}, {"y2", "z3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Bigrams = %#v, want %#v", got, want)
	}
	if s := got[0].String(); s != "x1 y2" {
		t.Errorf("String() = %q", s)
	}
}

func TestSortedFrequenciesTieBreak(t *testing.T) {
	freq := map[string]int{"zeta": 3, "alpha": 3, "beta": 5, "gamma": 1}
	want := []WordCount{{"beta", 5}, {"alpha", 3}, {"zeta", 3}, {"gamma", 1}}
	if got := SortedFrequencies(freq); !reflect.DeepEqual(got, want) {
		t.Errorf("SortedFrequencies = %#v, want %#v", got, want)
	}
	if got := TopN(freq, 2); !reflect.DeepEqual(got, want[:2]) {
		t.Errorf("TopN = %#v", got)
	}
}
