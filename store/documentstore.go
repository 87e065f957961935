package store

import (
	"sync"

	"github.com/lexcodex/espxls/lexer"
)

// DocumentStore holds the most recently lexed TokenVec for every
// open URI. Lifecycle is tied to editor open/save/close; the
// reconciler consults it for the previous token set on every update.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*lexer.TokenVec
}

// NewDocumentStore builds an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*lexer.TokenVec)}
}

// Get returns the stored tokens for uri, or (nil, false) if the
// document has never been lexed.
func (s *DocumentStore) Get(uri string) (*lexer.TokenVec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[uri]
	return v, ok
}

// Set replaces the stored tokens for uri.
func (s *DocumentStore) Set(uri string, tokens *lexer.TokenVec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = tokens
}

// Delete removes uri from the store, on editor close.
func (s *DocumentStore) Delete(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// URIs returns every URI currently tracked, in no particular order.
func (s *DocumentStore) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	return out
}
