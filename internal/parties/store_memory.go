package parties

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"casedesk/pkg/domain"
	"casedesk/pkg/platform/sentinel"
)

// InMemory is a process-local party store for tests and development.
type InMemory struct {
	mu      sync.RWMutex
	parties map[domain.PartyID]*Party
}

func NewInMemory() *InMemory {
	return &InMemory{parties: make(map[domain.PartyID]*Party)}
}

// Save inserts or replaces a party.
func (s *InMemory) Save(_ context.Context, p *Party) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.parties[p.ID]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	s.parties[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PartyID) (*Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[id]
	if !ok {
		return nil, fmt.Errorf("party %s: %w", id, sentinel.ErrNotFound)
	}
	return p.Clone(), nil
}

// List returns all parties ordered by id.
func (s *InMemory) List(_ context.Context) ([]*Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Party, 0, len(s.parties))
	for _, p := range s.parties {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *Party) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out, nil
}
