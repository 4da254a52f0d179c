// Package memory implements storage.Storage in process memory. It backs
// tests and one-shot CLI runs with the memory backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/types"
)

// Store keeps deep copies of records keyed by id.
type Store struct {
	mu      sync.RWMutex
	records map[string]*types.ProjectRecord
	now     func() time.Time
	closed  bool
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]*types.ProjectRecord), now: time.Now}
}

// WithClock replaces the clock used for CreatedAt and UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Load(ctx context.Context, id string) (*types.ProjectRecord, error) {
	if id == "" {
		return nil, types.NewValidationError("id", "is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.NewPersistenceError("load", errClosed)
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, storage.NotFound(id)
	}
	return rec.Clone(), nil
}

func (s *Store) Save(ctx context.Context, rec *types.ProjectRecord, fields ...types.Field) (*types.ProjectRecord, error) {
	if err := storage.PrepareSave(rec, fields); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.NewPersistenceError("save", errClosed)
	}
	stored, ok := s.records[rec.ID]
	if !ok {
		return nil, storage.NotFound(rec.ID)
	}
	next, err := storage.Merge(stored, rec, fields)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now().UTC()
	s.records[rec.ID] = next
	return next.Clone(), nil
}

func (s *Store) Create(ctx context.Context, rec *types.ProjectRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.NewPersistenceError("create", errClosed)
	}
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("project %s: %w", rec.ID, storage.ErrAlreadyExists)
	}
	stored := rec.Clone()
	stored.SetDefaults()
	stored.Version = 1
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.records[rec.ID] = stored
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.NewPersistenceError("list", errClosed)
	}
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var errClosed = errors.New("store is closed")
