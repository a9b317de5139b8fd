package registry

import (
	"context"
	"sync"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

// InMemoryStore keeps enrollments in insertion order for tests and
// single-process setups.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[id.AccountID]domain.Identity
	enrollment []id.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.AccountID]domain.Identity)}
}

func (s *InMemoryStore) Save(_ context.Context, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[identity.ID]; ok {
		return sentinel.ErrExists
	}
	identity.Descriptor = identity.Descriptor.Clone()
	s.byID[identity.ID] = identity
	s.enrollment = append(s.enrollment, identity.ID)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, accountID id.AccountID) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.byID[accountID]; ok {
		return identity, nil
	}
	return domain.Identity{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.enrollment))
	for _, accountID := range s.enrollment {
		if identity, ok := s.byID[accountID]; ok {
			out = append(out, identity)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[accountID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, accountID)
	for i, existing := range s.enrollment {
		if existing == accountID {
			s.enrollment = append(s.enrollment[:i], s.enrollment[i+1:]...)
			break
		}
	}
	return nil
}
