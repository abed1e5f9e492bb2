package frontier

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryFIFO(t *testing.T) {
	ctx := context.Background()
	f := NewMemory("http://www.ics.uci.edu/")
	f.AddURL(ctx, "http://vision.ics.uci.edu/a")
	f.AddURL(ctx, "  http://vision.ics.uci.edu/b ")

	var got []string
	for {
		ok, err := f.HasNextURL(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		u, err := f.NextURL(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, u)
	}
	want := []string{"http://www.ics.uci.edu/", "http://vision.ics.uci.edu/a", "http://vision.ics.uci.edu/b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := f.NextURL(ctx); !errors.Is(err, ErrEmpty) {
		t.Errorf("NextURL on empty frontier: %v", err)
	}
}

func TestMemoryDedup(t *testing.T) {
	ctx := context.Background()
	f := NewMemory()
	for _, u := range []string{
		"http://www.ics.uci.edu/a",
		"https://www.ics.uci.edu/a",
		"http://www.ics.uci.edu/a",
		"",
	} {
		f.AddURL(ctx, u)
	}
	if _, pending, _ := f.Counts(ctx); pending != 1 {
		t.Fatalf("pending = %d, want 1", pending)
	}
	f.NextURL(ctx)
	// A dequeued URL is never queued again.
	f.AddURL(ctx, "http://www.ics.uci.edu/a")
	fetched, pending, _ := f.Counts(ctx)
	if fetched != 1 || pending != 0 {
		t.Errorf("fetched=%d pending=%d", fetched, pending)
	}
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"http://www.ics.uci.edu/x":  "www.ics.uci.edu/x",
		" https://ics.uci.edu ":     "ics.uci.edu",
		"www.ics.uci.edu/no-scheme": "www.ics.uci.edu/no-scheme",
	}
	for in, want := range tests {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}
