package business

import (
	"context"
	"sync"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	businesses map[id.AccountID]domain.Business
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{businesses: make(map[id.AccountID]domain.Business)}
}

func (s *InMemoryStore) Save(_ context.Context, b domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[b.ID]; ok {
		return sentinel.ErrExists
	}
	s.businesses[b.ID] = b
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.businesses[accountID]; ok {
		return b, nil
	}
	return domain.Business{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.businesses {
		if b.Username == username {
			return b, nil
		}
	}
	return domain.Business{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[accountID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.businesses, accountID)
	return nil
}
