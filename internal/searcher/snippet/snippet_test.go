package snippet

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type docs map[string]string

func (d docs) ReadDocument(id string) ([]byte, error) {
	s, ok := d[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(s), nil
}

func TestExtract(t *testing.T) {
	store := docs{
		"0/1": `<html><head><title> Machine Learning </title></head><body><p>Courses and research.</p><script>var x;</script></body></html>`,
		"0/2": `<html><body><p>No title here</p></body></html>`,
	}
	got, err := Extract(context.Background(), store, []string{"0/2", "0/1", "9/9"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d snippets", len(got))
	}
	if got[0] != (Snippet{}) {
		t.Errorf("untitled doc = %+v, want empty", got[0])
	}
	if got[1].Title != "Machine Learning" {
		t.Errorf("title = %q", got[1].Title)
	}
	if got[1].Text != "Machine Learning Courses and research." {
		t.Errorf("text = %q", got[1].Text)
	}
	if got[2] != (Snippet{}) {
		t.Errorf("missing doc = %+v, want empty", got[2])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"short", 0, "short"},
		{"the quick brown fox", 12, "the quick..."},
		{"abcdefghij", 4, "abcd..."},
		{"héllo wörld again", 11, "héllo wörld..."},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
	long := strings.Repeat("word ", 200)
	if got := Truncate(long, 300); len([]rune(got)) > 300+len(ellipsis) {
		t.Errorf("truncated to %d runes", len([]rune(got)))
	}
}
