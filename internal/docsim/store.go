package docsim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/api/docs/v1"
)

// ErrNotFound is returned by Fetch for an unknown document id.
var ErrNotFound = errors.New("document not found")

// Store is an in-memory document backend. It serves as document source and
// sink when no Google credentials are configured, and in tests.
type Store struct {
	mu     sync.Mutex
	docs   map[string]*Document
	titles map[string]string
}

func NewStore() *Store {
	return &Store{
		docs:   map[string]*Document{},
		titles: map[string]string{},
	}
}

// Create adds an empty document, replacing any document with the same id.
func (s *Store) Create(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = New()
	s.titles[id] = title
}

func (s *Store) Fetch(ctx context.Context, id string) (*docs.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", id, ErrNotFound)
	}
	return d.Render(id, s.titles[id]), nil
}

// Apply applies a batch. Unknown ids start out as empty documents.
func (s *Store) Apply(ctx context.Context, id string, reqs []*docs.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		d = New()
		s.docs[id] = d
		s.titles[id] = id
	}
	if err := d.Apply(reqs); err != nil {
		return fmt.Errorf("apply to %s: %w", id, err)
	}
	return nil
}
