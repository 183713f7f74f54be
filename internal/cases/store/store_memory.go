// Package store persists case aggregates in memory or in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"casedesk/internal/cases/models"
	"casedesk/pkg/domain"
	"casedesk/pkg/platform/sentinel"
)

// InMemoryStore keeps deep copies of cases. Callers never share memory
// with what is stored.
type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[domain.CaseID]*models.Case
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cases: make(map[domain.CaseID]*models.Case)}
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	c.Version = 1
	c.Activity.MarkPersisted()
	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

// Save replaces the stored case when c.Version matches, then bumps it.
func (s *InMemoryStore) Save(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[c.ID]
	if !ok {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrNotFound)
	}
	if current.Version != c.Version {
		return fmt.Errorf("case %s at version %d, have %d: %w", c.ID, current.Version, c.Version, sentinel.ErrConflict)
	}
	c.Version++
	c.Activity.MarkPersisted()
	s.cases[c.ID] = c.Clone()
	return nil
}

// List returns matching cases, most recently updated first.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
