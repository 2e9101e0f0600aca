package oauth2

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State validation failures. Distinguishable for logs and tests; callers
// should present them uniformly to the outside.
var (
	ErrStateFormat    = errors.New("malformed oauth state token")
	ErrStateSignature = errors.New("invalid oauth state signature")
	ErrStateExpired   = errors.New("oauth state token expired")
)

// StateGuard mints and validates the signed anti-CSRF tokens that bind an
// OAuth callback to the request that initiated it. Tokens are of the form
// nonce:issued-at:signature and are never stored server-side; validity is
// recomputed from content and bounded by TTL.
//
// Note: the guard does not enforce single use. A captured, still-fresh state
// can be replayed until it expires.
type StateGuard struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewStateGuard creates a guard signing with the shared secret.
func NewStateGuard(secret string, ttl time.Duration) *StateGuard {
	return &StateGuard{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (g *StateGuard) sign(nonce string, issuedAt int64) string {
	payload := fmt.Sprintf("%s:%d", nonce, issuedAt)
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(payload))
	return payload + ":" + hex.EncodeToString(mac.Sum(nil))
}

// Generate produces a fresh signed state token.
func (g *StateGuard) Generate() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	nonce := base64.RawURLEncoding.EncodeToString(buf)
	return g.sign(nonce, g.now().Unix()), nil
}

// Validate checks the token's shape, signature, and freshness. The signature
// comparison is constant-time.
func (g *StateGuard) Validate(state string) error {
	parts := strings.Split(state, ":")
	if len(parts) != 3 {
		return ErrStateFormat
	}
	issuedAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrStateFormat
	}
	expected := g.sign(parts[0], issuedAt)
	if !hmac.Equal([]byte(expected), []byte(state)) {
		return ErrStateSignature
	}
	if g.now().Unix()-issuedAt > int64(g.ttl.Seconds()) {
		return ErrStateExpired
	}
	return nil
}
