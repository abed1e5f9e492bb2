package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/config"
)

func testFetcher() *HTTPFetcher {
	return NewHTTPFetcher(config.CrawlerConfig{
		UserAgent:     "test-agent",
		FetchTimeout:  2 * time.Second,
		FetchAttempts: 3,
	}, nil)
}

func TestHTTPFetcherFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new/", func(w http.ResponseWriter, r *http.Request) {
		if r.UserAgent() != "test-agent" {
			t.Errorf("User-Agent = %q", r.UserAgent())
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<a href="page.html">p</a>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := testFetcher().FetchURL(context.Background(), srv.URL+"/old")
	if res.HTTPCode != 200 || !res.IsRedirected || res.FinalURL != srv.URL+"/new/" {
		t.Errorf("result = %+v", res)
	}
	if res.ContentType != "text/html" || res.Size == 0 {
		t.Errorf("content type %q size %d", res.ContentType, res.Size)
	}
}

func TestHTTPFetcherNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	res := testFetcher().FetchURL(context.Background(), srv.URL+"/missing")
	if res.HTTPCode != 404 || res.Size != 0 || res.ContentType != "" {
		t.Errorf("result = %+v", res)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server called %d times, want 1", n)
	}
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	res := testFetcher().FetchURL(context.Background(), srv.URL)
	if res.HTTPCode != 200 || string(res.Content) != "<p>ok</p>" {
		t.Errorf("result = %+v", res)
	}
}

func TestLiveStoresHTMLPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data.csv" {
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte("a,b"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<title>t</title>"))
	}))
	defer srv.Close()

	store, err := Create(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	live := NewLive(testFetcher(), store)
	ctx := context.Background()

	id, ok := live.GetFileName(srv.URL + "/page")
	if !ok {
		t.Fatal("live corpus rejected url")
	}
	live.FetchURL(ctx, srv.URL+"/page")
	if data, err := store.ReadDocument(id); err != nil || string(data) != "<title>t</title>" {
		t.Errorf("stored %q, %v", data, err)
	}

	live.FetchURL(ctx, srv.URL+"/data.csv")
	if _, ok := store.GetFileName(srv.URL + "/data.csv"); ok {
		t.Error("non-HTML page was stored")
	}
}
