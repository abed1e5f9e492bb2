// Package markup parses stored or fetched HTML and exposes the few views the
// crawler, indexer and snippet builder need: visible text, text of elements
// by tag name, the page title and anchor hrefs.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed page.
type Document struct {
	doc *goquery.Document
}

// Parse reads and parses HTML from r. The parser is lenient; only read
// errors are reported.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseBytes parses an in-memory page.
func ParseBytes(content []byte) (*Document, error) {
	return Parse(bytes.NewReader(content))
}

// Text returns every visible text node joined by sep. Script, style and
// noscript content is skipped.
func (d *Document) Text(sep string) string {
	var parts []string
	for _, n := range d.doc.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, sep)
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// FindAll returns the trimmed text of every element named tag, in document
// order.
func (d *Document) FindAll(tag string) []string {
	sel := d.doc.Find(tag)
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// Title returns the text of the first title element and whether one exists.
func (d *Document) Title() (string, bool) {
	sel := d.doc.Find("title").First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

// Hrefs returns the href attribute of every anchor that has one. Anchors
// without the attribute are skipped.
func (d *Document) Hrefs() []string {
	var hrefs []string
	d.doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}
