// Package memory provides in-process implementations of the engine's
// collaborator ports: a document store, the line-level task editor, a
// cross-document query service and a logger-backed notifier. It backs tests
// and the CLI's dry-run mode; production setups swap the store for the loam
// adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store is a thread-safe in-memory document store keyed by path.
type Store struct {
	mu    sync.RWMutex
	root  string
	files map[string]string
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithRoot sets the nominal root directory reported to shell sandboxing.
func WithRoot(root string) StoreOption {
	return func(s *Store) { s.root = root }
}

// WithDocuments seeds the store with initial content.
func WithDocuments(files map[string]string) StoreOption {
	return func(s *Store) {
		for path, content := range files {
			s.files[path] = content
		}
	}
}

// NewStore creates an empty in-memory document store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		root:  ".",
		files: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the full text of a document.
func (s *Store) Load(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("document %s not found", path)
	}
	return content, nil
}

// Save replaces the full text of a document, creating it if needed.
func (s *Store) Save(_ context.Context, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
	return nil
}

// Root returns the nominal store root.
func (s *Store) Root() string { return s.root }

// Paths lists every stored document path in sorted order.
func (s *Store) Paths(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
