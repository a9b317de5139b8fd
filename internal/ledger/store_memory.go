package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

// InMemoryStore keeps balances in a map with the same versioned-commit
// contract as the durable stores. It backs tests and single-process setups.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.AccountID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.AccountID]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, accountID id.AccountID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[accountID]; ok {
		return rec, nil
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Create(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[accountID]; ok {
		return sentinel.ErrExists
	}
	s.records[accountID] = NewRecord(accountID)
	return nil
}

func (s *InMemoryStore) Commit(_ context.Context, accountID id.AccountID, balance decimal.Decimal, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	s.records[accountID] = Record{
		AccountID: accountID,
		Balance:   balance,
		Version:   expectedVersion + 1,
	}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[accountID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, accountID)
	return nil
}
