// Package memory is a process-local Store, optionally seeded from JSON.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New(seed ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), seed...)}
}

// NewFromFile seeds the store from a JSON file shaped like the list
// response, {"transactions": [...]}, or a bare array.
func NewFromFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var wrapped struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Transactions != nil {
		return New(wrapped.Transactions...), nil
	}
	var bare []core.Transaction
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(bare...), nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.items...), nil
}

func (s *Store) Append(_ context.Context, t core.Transaction) error {
	if err := store.Check(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return nil
}

func (s *Store) SetStatus(_ context.Context, name string, status bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.items {
		if s.items[i].Name == name {
			s.items[i].Status = core.Status(status)
			found = true
		}
	}
	if !found {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, t := range s.items {
		if t.Name != name {
			kept = append(kept, t)
		}
	}
	removed := len(s.items) - len(kept)
	clear(s.items[len(kept):])
	s.items = kept
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
