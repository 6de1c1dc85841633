// Package blobstore keeps artifacts reachable under short-lived reference
// URLs, the server-side counterpart of a browser object URL.
package blobstore

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Blob is a stored artifact.
type Blob struct {
	ID          string
	Data        []byte
	ContentType string
	Filename    string
	CreatedAt   time.Time
}

// Store is an in-memory registry of blobs keyed by random IDs.
type Store struct {
	prefix string

	mu    sync.RWMutex
	blobs map[string]Blob
}

// New creates a store whose URLs start with prefix, e.g. "/api/blobs/".
func New(prefix string) *Store {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		prefix: prefix,
		blobs:  make(map[string]Blob),
	}
}

// Create stores a copy of data and returns its reference URL.
func (s *Store) Create(data []byte, contentType, filename string) string {
	id := uuid.New().String()
	blob := Blob{
		ID:          id,
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		Filename:    filename,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.blobs[id] = blob
	s.mu.Unlock()

	return s.prefix + id
}

// Get returns the blob with the given ID.
func (s *Store) Get(id string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[id]
	return blob, ok
}

// Take removes and returns the blob with the given ID.
func (s *Store) Take(id string) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[id]
	if ok {
		delete(s.blobs, id)
	}
	return blob, ok
}

// Resolve returns the blob a reference URL points at.
func (s *Store) Resolve(url string) (Blob, bool) {
	id, ok := s.idFromURL(url)
	if !ok {
		return Blob{}, false
	}
	return s.Get(id)
}

// Revoke releases the blob behind url. It reports whether anything was removed.
func (s *Store) Revoke(url string) bool {
	id, ok := s.idFromURL(url)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[id]; !exists {
		return false
	}
	delete(s.blobs, id)
	return true
}

// Len returns the number of live blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Sweep drops blobs older than maxAge and returns how many were removed.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, blob := range s.blobs {
		if blob.CreatedAt.Before(cutoff) {
			delete(s.blobs, id)
			removed++
		}
	}
	return removed
}

func (s *Store) idFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, s.prefix) {
		return "", false
	}
	id := strings.TrimPrefix(url, s.prefix)
	return id, id != ""
}
