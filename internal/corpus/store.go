// Package corpus stores crawled pages on disk as <folder>/<file> documents
// with a bookkeeping.json table mapping each document id to its URL, and
// fetches pages either from that store or over HTTP.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
)

// BookkeepingFile is the id -> URL table inside a corpus directory.
const BookkeepingFile = "bookkeeping.json"

// FilesPerFolder is how many documents a folder holds before ids move on
// to the next folder.
const FilesPerFolder = 500

// FetchResult is what a fetch reports about one URL. A failed fetch carries
// the URL with zero Size and an empty ContentType.
type FetchResult struct {
	URL          string
	FinalURL     string
	IsRedirected bool
	Content      []byte
	ContentType  string
	Size         int
	HTTPCode     int
}

// Store is a corpus directory. URLs are keyed without their scheme, the way
// bookkeeping.json records them.
type Store struct {
	dir    string
	mu     sync.RWMutex
	byID   map[string]string
	byURL  map[string]string
	next   int
	logger *slog.Logger
}

// Open loads an existing corpus. A missing directory or bookkeeping table is
// an error.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening corpus %s: not a directory", dir)
	}
	s := newStore(dir)
	if err := segment.ReadJSON(filepath.Join(dir, BookkeepingFile), &s.byID); err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", dir, err)
	}
	s.index()
	return s, nil
}

// Create opens dir for writing, creating it if needed and loading any
// bookkeeping already there.
func Create(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating corpus %s: %w", dir, err)
	}
	s := newStore(dir)
	path := filepath.Join(dir, BookkeepingFile)
	if _, err := os.Stat(path); err == nil {
		if err := segment.ReadJSON(path, &s.byID); err != nil {
			return nil, fmt.Errorf("creating corpus %s: %w", dir, err)
		}
	}
	s.index()
	return s, nil
}

func newStore(dir string) *Store {
	return &Store{
		dir:    dir,
		byID:   make(map[string]string),
		byURL:  make(map[string]string),
		logger: slog.Default().With("component", "corpus"),
	}
}

func (s *Store) index() {
	if s.byID == nil {
		s.byID = make(map[string]string)
	}
	for id, u := range s.byID {
		s.byURL[u] = id
		if folder, file, ok := splitID(id); ok {
			if seq := folder*FilesPerFolder + file + 1; seq > s.next {
				s.next = seq
			}
		}
	}
}

// Dir returns the corpus directory.
func (s *Store) Dir() string {
	return s.dir
}

// Len returns the number of bookkept documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// DocIDs lists every bookkept document ordered by folder then file number.
func (s *Store) DocIDs() ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids, nil
}

// ReadDocument returns the stored bytes of id.
func (s *Store) ReadDocument(id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s: %w", id, apperrors.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	return data, nil
}

// URL returns the URL recorded for id.
func (s *Store) URL(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	return u, ok
}

// GetFileName returns the document id stored for rawURL. An absent id means
// the URL is not part of the corpus.
func (s *Store) GetFileName(rawURL string) (string, bool) {
	key := urlKey(rawURL)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byURL[key]; ok {
		return id, true
	}
	if id, ok := s.byURL[strings.TrimSuffix(key, "/")]; ok {
		return id, true
	}
	id, ok := s.byURL[key+"/"]
	return id, ok
}

// Reserve returns rawURL's id, assigning the next free one when the URL is
// new.
func (s *Store) Reserve(rawURL string) string {
	key := urlKey(rawURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byURL[key]; ok {
		return id
	}
	id := fmt.Sprintf("%d/%d", s.next/FilesPerFolder, s.next%FilesPerFolder)
	s.next++
	s.byID[id] = key
	s.byURL[key] = id
	return id
}

// Put stores content under id.
func (s *Store) Put(id string, content []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating folder for %s: %w", id, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing document %s: %w", id, err)
	}
	return nil
}

// Flush rewrites bookkeeping.json.
func (s *Store) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := segment.WriteJSON(filepath.Join(s.dir, BookkeepingFile), s.byID); err != nil {
		return fmt.Errorf("flushing bookkeeping: %w", err)
	}
	s.logger.Info("bookkeeping flushed", "documents", len(s.byID))
	return nil
}

// FetchURL serves rawURL from disk. URLs outside the corpus, and stored
// documents that are missing, come back as a 404.
func (s *Store) FetchURL(_ context.Context, rawURL string) FetchResult {
	res := FetchResult{URL: rawURL}
	id, ok := s.GetFileName(rawURL)
	if !ok {
		res.HTTPCode = 404
		return res
	}
	content, err := s.ReadDocument(id)
	if err != nil {
		s.logger.Warn("stored document unreadable", "url", rawURL, "doc_id", id, "error", err)
		res.HTTPCode = 404
		return res
	}
	res.Content = content
	res.Size = len(content)
	res.ContentType = "text/html"
	res.HTTPCode = 200
	return res
}

func (s *Store) path(id string) (string, error) {
	if _, _, ok := splitID(id); !ok {
		return "", fmt.Errorf("document id %q: %w", id, apperrors.ErrInvalidInput)
	}
	return filepath.Join(s.dir, filepath.FromSlash(id)), nil
}

// urlKey strips surrounding space and the scheme.
func urlKey(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	return u
}

func splitID(id string) (folder, file int, ok bool) {
	a, b, found := strings.Cut(id, "/")
	if !found {
		return 0, 0, false
	}
	folder, err := strconv.Atoi(a)
	if err != nil || folder < 0 {
		return 0, 0, false
	}
	file, err = strconv.Atoi(b)
	if err != nil || file < 0 {
		return 0, 0, false
	}
	return folder, file, true
}

func lessID(a, b string) bool {
	af, an, aok := splitID(a)
	bf, bn, bok := splitID(b)
	if aok && bok {
		if af != bf {
			return af < bf
		}
		return an < bn
	}
	return a < b
}
