// Package otp issues, validates, and invalidates single-use numeric codes
// backed by an expiring key/value store.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrUnavailable wraps failures of the backing store so callers can tell
// "wrong or expired code" apart from "store unreachable".
var ErrUnavailable = errors.New("otp store unavailable")

// KV is the expiring key/value store the OTP store runs against. Redis in
// production, MemoryKV in tests.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns (value, true, nil) on a hit and ("", false, nil) when the
	// key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
}

// GenerateCode creates a cryptographically random numeric code of exactly
// length digits, uniform over [0, 10^length), with leading zeros preserved.
func GenerateCode(length int) (string, error) {
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// Store manages the OTP lifecycle. At most one live code exists per email;
// issuing a new one overwrites any prior code under the same key.
type Store struct {
	kv     KV
	length int
	ttl    time.Duration
}

// NewStore creates a Store. The KV handle is injected so its lifecycle
// (opened at process start, closed at shutdown) stays with the caller.
func NewStore(kv KV, length int, ttl time.Duration) *Store {
	return &Store{kv: kv, length: length, ttl: ttl}
}

func key(email string) string { return "otp:" + email }

// Issue generates a fresh code for the email, stores it with the configured
// TTL, and returns it. Any previously issued code for the email is
// superseded.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	code, err := GenerateCode(s.length)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, key(email), code, s.ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return code, nil
}

// Validate checks the submitted code against the stored one. On a match the
// record is deleted before returning true, so a second validation with the
// same code returns false. A missing, expired, or mismatched code returns
// (false, nil); only store failures produce an error.
func (s *Store) Validate(ctx context.Context, email, submitted string) (bool, error) {
	stored, found, err := s.kv.Get(ctx, key(email))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !found || stored != submitted {
		return false, nil
	}
	if err := s.kv.Del(ctx, key(email)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}

// Invalidate unconditionally removes any stored code for the email. Used to
// roll back an issuance when delivery fails, so a valid but undelivered code
// cannot linger.
func (s *Store) Invalidate(ctx context.Context, email string) error {
	if err := s.kv.Del(ctx, key(email)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
