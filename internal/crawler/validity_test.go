package crawler

import (
	"net/url"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
)

func newTestCrawler() *Crawler {
	return New(config.CrawlerConfig{AllowedDomain: ".ics.uci.edu"}, frontier.NewMemory(), nil, nil)
}

func TestIsValid(t *testing.T) {
	c := newTestCrawler()
	tests := []struct {
		url  string
		want bool
	}{
		{"http://foo.ics.uci.edu/page.html", true},
		{"https://www.ics.uci.edu/", true},
		{"http://foo.ics.uci.edu/paper.pdf", false},
		{"http://foo.ics.uci.edu/PAPER.PDF", false},
		{"http://foo.ics.uci.edu/old.htm", false},
		{"http://foo.ics.uci.edu/src/main.c", false},
		{"http://foo.ics.uci.edu/dir.", false},
		{"http://www.google.com/page.html", false},
		{"ftp://foo.ics.uci.edu/page.html", false},
		{"mailto:someone@ics.uci.edu", false},
		{"http:///page.html", false},
		{"http://foo.ics.uci.edu/page.html#top", false},
		{"http://foo.ics.uci.edu/a/a/a/b", false},
		{"http://foo.ics.uci.edu/a/a/b", true},
		{"http://foo.ics.uci.edu/a%2Fa%2Fa/b", true},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			if got := c.IsValid(tc.url); got != tc.want {
				t.Errorf("IsValid(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestIsValidRejectsKnownTraps(t *testing.T) {
	c := newTestCrawler()
	link := "http://foo.ics.uci.edu/page.html"
	c.trapSet[link] = struct{}{}
	if c.IsValid(link) {
		t.Error("URL in the trap set was accepted")
	}
}

func TestIsTrap(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://foo.ics.uci.edu/a/a/a/b", true},
		{"http://foo.ics.uci.edu/a/a/b", false},
		{"http://foo.ics.uci.edu/a%2Fa%2Fa/b", false},
		{"http://foo.ics.uci.edu/a%2Fb%2Fc%2Fd%2Fe%2Ff/g", false},
		{"http://foo.ics.uci.edu/a/b/c/d/e", false},
		{"http://foo.ics.uci.edu/a/b/c/d/e/f", true},
		{"http://foo.ics.uci.edu/gallery/pix/1", true},
		{"http://foo.ics.uci.edu/pairs/Data/x", true},
		{"http://foo.ics.uci.edu/pairs/data/x", false},
		{"http://archive.ics.uci.edu/ml/datasets.php", true},
		{"http://wics.ics.uci.edu/events/2019", true},
		{"http://cbcl.ics.uci.edu/public_data/x", true},
		{"http://fano.ics.uci.edu/ca/rules/b0", true},
		{"http://fano.ics.uci.edu/ca/b0", false},
		{"http://foo.ics.uci.edu/p?a=1&b=2&c=3&d=4", false},
		{"http://foo.ics.uci.edu/p?a=1&b=2&c=3&d=4&e=5", true},
		{"http://foo.ics.uci.edu/p?ical=1", true},
		{"http://foo.ics.uci.edu/p?do=edit", true},
		{"http://foo.ics.uci.edu/p?version=3", true},
		{"http://foo.ics.uci.edu/p?share=twitter", true},
		{"http://foo.ics.uci.edu/p?ical=", false},
		{"http://foo.ics.uci.edu/p?action=login", true},
		{"http://foo.ics.uci.edu/p?action=view", false},
		{"http://foo.ics.uci.edu/p?from=2019-01-01", true},
		{"http://foo.ics.uci.edu/p?from=1999-01-01", false},
		{"http://foo.ics.uci.edu/p#section", true},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			u, err := url.Parse(tc.url)
			if err != nil {
				t.Fatal(err)
			}
			if got := IsTrap(u); got != tc.want {
				t.Errorf("IsTrap(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestHasRepeatingSegments(t *testing.T) {
	tests := []struct {
		segments []string
		want     bool
	}{
		{[]string{"", "a", "a", "a", "b"}, true},
		{[]string{"", "a", "a", "b"}, false},
		{[]string{"", "a", "b", "b", "b"}, true},
		{[]string{""}, false},
		{[]string{"", "a", "a", "b", "a", "a"}, false},
	}
	for _, tc := range tests {
		if got := hasRepeatingSegments(tc.segments); got != tc.want {
			t.Errorf("hasRepeatingSegments(%q) = %v, want %v", tc.segments, got, tc.want)
		}
	}
}
