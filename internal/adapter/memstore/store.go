// Package memstore is an in-process document store used for tests, dry runs
// and payload replay.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// Store holds documents grouped by parent path.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]json.RawMessage
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]map[string]json.RawMessage)}
}

// Set replaces the document at path.
func (s *Store) Set(_ context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	parent, name := domain.SplitPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.children(parent)[name] = data
	return nil
}

// Update shallow-merges fields into the document at path.
func (s *Store) Update(_ context.Context, path string, fields map[string]any) error {
	parent, name := domain.SplitPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	children := s.children(parent)
	merged, err := domain.MergeFields(children[name], fields)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	children[name] = merged
	return nil
}

// Delete removes the document at path. Missing documents are not an error.
func (s *Store) Delete(_ context.Context, path string) error {
	parent, name := domain.SplitPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[parent], name)
	return nil
}

// Children returns copies of the documents directly beneath path.
func (s *Store) Children(_ context.Context, path string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.docs[strings.Trim(path, "/")]), nil
}

// Get returns the document at path.
func (s *Store) Get(_ context.Context, path string) (json.RawMessage, bool) {
	parent, name := domain.SplitPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[parent][name]
	return doc, ok
}

// Paths lists every stored document path in sorted order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for parent, children := range s.docs {
		for name := range children {
			if parent == "" {
				paths = append(paths, name)
			} else {
				paths = append(paths, parent+"/"+name)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

func (s *Store) children(parent string) map[string]json.RawMessage {
	c, ok := s.docs[parent]
	if !ok {
		c = make(map[string]json.RawMessage)
		s.docs[parent] = c
	}
	return c
}
