//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore-backed AccountStore.
// Entities are keyed by email, which makes the uniqueness constraint a
// property of the key space rather than a separate index.
package gae

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/panyam/gatekey"
)

// KindAccount is the Datastore kind for account entities.
const KindAccount = "Account"

type accountEntity struct {
	ID           int64     `datastore:"id"`
	Email        string    `datastore:"email"`
	PasswordHash string    `datastore:"password_hash,noindex"`
	AuthProvider string    `datastore:"auth_provider"`
	ProviderID   string    `datastore:"provider_id"`
	IsActive     bool      `datastore:"is_active"`
	IsVerified   bool      `datastore:"is_verified"`
	CreatedAt    time.Time `datastore:"created_at"`
}

func (e *accountEntity) toAccount() *gatekey.Account {
	return &gatekey.Account{
		ID:           uint(e.ID),
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		AuthProvider: e.AuthProvider,
		ProviderID:   e.ProviderID,
		IsActive:     e.IsActive,
		IsVerified:   e.IsVerified,
		CreatedAt:    e.CreatedAt,
	}
}

// AccountStore implements gatekey.AccountStore using Cloud Datastore.
type AccountStore struct {
	client    *datastore.Client
	namespace string
}

// NewAccountStore creates a Datastore-backed AccountStore. namespace may be
// empty for the default namespace.
func NewAccountStore(client *datastore.Client, namespace string) *AccountStore {
	return &AccountStore{client: client, namespace: namespace}
}

func (s *AccountStore) key(email string) *datastore.Key {
	k := datastore.NameKey(KindAccount, email, nil)
	k.Namespace = s.namespace
	return k
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*gatekey.Account, error) {
	var entity accountEntity
	err := s.client.Get(ctx, s.key(email), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity.toAccount(), nil
}

func (s *AccountStore) Create(ctx context.Context, account *gatekey.Account) (*gatekey.Account, error) {
	ids, err := s.client.AllocateIDs(ctx, []*datastore.Key{datastore.IncompleteKey(KindAccount, nil)})
	if err != nil {
		return nil, err
	}

	entity := &accountEntity{
		ID:           ids[0].ID,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		AuthProvider: account.AuthProvider,
		ProviderID:   account.ProviderID,
		IsActive:     account.IsActive,
		IsVerified:   account.IsVerified,
		CreatedAt:    time.Now(),
	}

	key := s.key(account.Email)
	_, err = s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing accountEntity
		getErr := tx.Get(key, &existing)
		if getErr == nil {
			return gatekey.ErrDuplicateEmail
		}
		if !errors.Is(getErr, datastore.ErrNoSuchEntity) {
			return getErr
		}
		_, putErr := tx.Put(key, entity)
		return putErr
	})
	if err != nil {
		return nil, err
	}
	return entity.toAccount(), nil
}

func (s *AccountStore) Save(ctx context.Context, account *gatekey.Account) (*gatekey.Account, error) {
	entity := &accountEntity{
		ID:           int64(account.ID),
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		AuthProvider: account.AuthProvider,
		ProviderID:   account.ProviderID,
		IsActive:     account.IsActive,
		IsVerified:   account.IsVerified,
		CreatedAt:    account.CreatedAt,
	}
	if _, err := s.client.Put(ctx, s.key(account.Email), entity); err != nil {
		return nil, err
	}
	return entity.toAccount(), nil
}

func (s *AccountStore) Delete(ctx context.Context, id uint) error {
	query := datastore.NewQuery(KindAccount).Namespace(s.namespace).
		FilterField("id", "=", int64(id)).KeysOnly().Limit(1)
	keys, err := s.client.GetAll(ctx, query, nil)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return datastore.ErrNoSuchEntity
	}
	return s.client.Delete(ctx, keys[0])
}

func (s *AccountStore) ListAll(ctx context.Context) ([]*gatekey.Account, error) {
	var out []*gatekey.Account
	query := datastore.NewQuery(KindAccount).Namespace(s.namespace)
	it := s.client.Run(ctx, query)
	for {
		var entity accountEntity
		if _, err := it.Next(&entity); err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		out = append(out, entity.toAccount())
	}
	return out, nil
}
