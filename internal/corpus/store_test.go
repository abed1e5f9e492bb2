package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
)

func writeCorpus(t *testing.T, docs map[string]string, urls map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for id, body := range docs {
		path := filepath.Join(dir, filepath.FromSlash(id))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	s, err := Create(dir)
	if err != nil {
		t.Fatal(err)
	}
	for id, u := range urls {
		s.byID[id] = u
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestOpenRequiresDirectory(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "WEBPAGES_RAW")); err == nil {
		t.Fatal("expected error for missing corpus directory")
	}
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error for missing bookkeeping")
	}
}

func TestDocIDsNumericOrder(t *testing.T) {
	dir := writeCorpus(t, nil, map[string]string{
		"10/2": "www.ics.uci.edu/c",
		"2/11": "www.ics.uci.edu/b",
		"2/3":  "www.ics.uci.edu/a",
		"0/0":  "www.ics.uci.edu",
	})
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	ids, _ := s.DocIDs()
	if want := []string{"0/0", "2/3", "2/11", "10/2"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("DocIDs = %v, want %v", ids, want)
	}
}

func TestGetFileNameIgnoresSchemeAndSlash(t *testing.T) {
	dir := writeCorpus(t, nil, map[string]string{
		"0/1": "vision.ics.uci.edu/people",
		"0/2": "www.ics.uci.edu/",
	})
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"http://vision.ics.uci.edu/people", "0/1", true},
		{"https://vision.ics.uci.edu/people/", "0/1", true},
		{"http://www.ics.uci.edu", "0/2", true},
		{"http://www.ics.uci.edu/missing", "", false},
	}
	for _, tc := range tests {
		id, ok := s.GetFileName(tc.url)
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("GetFileName(%q) = %q, %v; want %q, %v", tc.url, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

func TestFetchURLFromDisk(t *testing.T) {
	dir := writeCorpus(t,
		map[string]string{"0/1": "<html><title>Hi</title></html>"},
		map[string]string{"0/1": "www.ics.uci.edu/hi", "0/2": "www.ics.uci.edu/gone"},
	)
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	res := s.FetchURL(ctx, "http://www.ics.uci.edu/hi")
	if res.HTTPCode != 200 || res.ContentType != "text/html" || res.Size == 0 {
		t.Errorf("stored page result = %+v", res)
	}
	if res := s.FetchURL(ctx, "http://www.ics.uci.edu/gone"); res.HTTPCode != 404 || res.Size != 0 {
		t.Errorf("missing file result = %+v", res)
	}
	if res := s.FetchURL(ctx, "http://elsewhere.edu/"); res.HTTPCode != 404 {
		t.Errorf("unknown url result = %+v", res)
	}
}

func TestReadDocumentErrors(t *testing.T) {
	s, err := Create(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReadDocument("0/9"); !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
	if _, err := s.ReadDocument("../etc/passwd"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestReserveAssignsSequentialIDs(t *testing.T) {
	dir := writeCorpus(t, nil, map[string]string{"0/499": "www.ics.uci.edu/last"})
	s, err := Create(dir)
	if err != nil {
		t.Fatal(err)
	}
	if id := s.Reserve("http://www.ics.uci.edu/new"); id != "1/0" {
		t.Errorf("Reserve = %q, want 1/0", id)
	}
	if id := s.Reserve("https://www.ics.uci.edu/new"); id != "1/0" {
		t.Errorf("Reserve is not idempotent: %q", id)
	}
	if id := s.Reserve("http://www.ics.uci.edu/last"); id != "0/499" {
		t.Errorf("existing url got %q", id)
	}
	if err := s.Put("1/0", []byte("<p>x</p>")); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := reopened.URL("1/0"); !ok || u != "www.ics.uci.edu/new" {
		t.Errorf("URL(1/0) = %q, %v", u, ok)
	}
	if reopened.Len() != 2 {
		t.Errorf("Len = %d", reopened.Len())
	}
}
