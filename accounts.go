package gatekey

import (
	"context"
	"errors"
	"time"
)

// Auth providers an account can be bound to.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// Account is the identity record owned by the AuthService. Emails are stored
// case-preserving and compared exactly as stored. A local account carries a
// password hash; a federated account carries the provider's subject id and
// no password.
type Account struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AuthProvider string    `json:"auth_provider"`
	ProviderID   string    `json:"provider_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsLocal reports whether the account authenticates with a password.
func (a *Account) IsLocal() bool { return a.AuthProvider == ProviderLocal }

// ErrDuplicateEmail is returned by AccountStore.Create when the email is
// already taken. Stores must translate their backend's uniqueness violation
// into this error so the service can treat a lost check-then-act race the
// same as a pre-check hit.
var ErrDuplicateEmail = errors.New("email already registered")

// AccountStore is the persistence collaborator for accounts. Implementations
// must enforce a uniqueness constraint on email.
//
// GetByEmail returns (nil, nil) when no account matches; an error means the
// backing store itself failed and is reported as infrastructure trouble, not
// as a missing account.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Save(ctx context.Context, account *Account) (*Account, error)
	Delete(ctx context.Context, id uint) error
	ListAll(ctx context.Context) ([]*Account, error)
}
