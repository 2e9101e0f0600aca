// Package stores provides AccountStore implementations: an in-memory store
// for tests and development, plus GORM and Cloud Datastore backends in
// subpackages.
package stores

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panyam/gatekey"
)

// MemoryAccountStore is a mutex-guarded in-memory AccountStore. Accounts are
// stored by value so callers cannot mutate the store's state through
// returned pointers.
type MemoryAccountStore struct {
	mu      sync.Mutex
	byEmail map[string]gatekey.Account
	nextID  uint
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{byEmail: make(map[string]gatekey.Account), nextID: 1}
}

func (s *MemoryAccountStore) GetByEmail(ctx context.Context, email string) (*gatekey.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (s *MemoryAccountStore) Create(ctx context.Context, account *gatekey.Account) (*gatekey.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[account.Email]; exists {
		return nil, gatekey.ErrDuplicateEmail
	}
	stored := *account
	stored.ID = s.nextID
	s.nextID++
	stored.CreatedAt = time.Now()
	s.byEmail[stored.Email] = stored
	result := stored
	return &result, nil
}

func (s *MemoryAccountStore) Save(ctx context.Context, account *gatekey.Account) (*gatekey.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byEmail[account.Email]
	if !ok {
		return nil, fmt.Errorf("account %d not found", account.ID)
	}
	stored := *account
	stored.CreatedAt = existing.CreatedAt
	s.byEmail[stored.Email] = stored
	result := stored
	return &result, nil
}

func (s *MemoryAccountStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, account := range s.byEmail {
		if account.ID == id {
			delete(s.byEmail, email)
			return nil
		}
	}
	return fmt.Errorf("account %d not found", id)
}

func (s *MemoryAccountStore) ListAll(ctx context.Context) ([]*gatekey.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*gatekey.Account, 0, len(s.byEmail))
	for _, account := range s.byEmail {
		copied := account
		out = append(out, &copied)
	}
	return out, nil
}
