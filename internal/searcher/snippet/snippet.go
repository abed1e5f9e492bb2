// Package snippet builds the (title, text) pair shown under each search
// result from the document's stored page.
package snippet

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/markup"
)

// DocumentReader returns a document's stored bytes.
type DocumentReader interface {
	ReadDocument(id string) ([]byte, error)
}

type Snippet struct {
	Title string `json:"title"`
	Text  string `json:"snippet"`
}

const ellipsis = "..."

// Extract returns one snippet per id, in the order given. Documents without
// a title, and documents that cannot be read, get an empty snippet. Text is
// cut to maxRunes runes; zero or less keeps all of it.
func Extract(ctx context.Context, r DocumentReader, ids []string, maxRunes int) ([]Snippet, error) {
	out := make([]Snippet, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = build(r, id, maxRunes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func build(r DocumentReader, id string, maxRunes int) Snippet {
	content, err := r.ReadDocument(id)
	if err != nil {
		slog.Warn("snippet source unreadable", "doc_id", id, "error", err)
		return Snippet{}
	}
	doc, err := markup.ParseBytes(content)
	if err != nil {
		slog.Warn("snippet source unparseable", "doc_id", id, "error", err)
		return Snippet{}
	}
	title, ok := doc.Title()
	if !ok {
		return Snippet{}
	}
	return Snippet{
		Title: strings.TrimSpace(title),
		Text:  Truncate(strings.TrimSpace(doc.Text(" ")), maxRunes),
	}
}

// Truncate cuts s to at most maxRunes runes, ending on a word boundary where
// one exists, and marks the cut with an ellipsis.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	cut, rest := s, ""
	n := 0
	for i := range s {
		if n == maxRunes {
			cut, rest = s[:i], s[i:]
			break
		}
		n++
	}
	if !strings.HasPrefix(rest, " ") {
		if sp := strings.LastIndexByte(cut, ' '); sp > 0 {
			cut = cut[:sp]
		}
	}
	return strings.TrimRight(cut, " ") + ellipsis
}
