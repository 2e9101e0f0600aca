package gatekey

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token parsing failures. ErrTokenExpired is distinct so callers can tell a
// stale-but-genuine token apart from a forged or mangled one.
var (
	ErrTokenExpired = errors.New("access token expired")
	ErrTokenInvalid = errors.New("access token invalid")
)

// TokenIssuer mints and parses bearer access tokens. Tokens are HS256-signed
// JWTs carrying the account email as subject. There is no revocation list; a
// token stays valid until its embedded expiry.
type TokenIssuer struct {
	SecretKey string
	Issuer    string
}

// NewTokenIssuer creates a TokenIssuer signing with the given shared secret.
func NewTokenIssuer(secretKey, issuer string) *TokenIssuer {
	return &TokenIssuer{SecretKey: secretKey, Issuer: issuer}
}

// Mint produces a signed token for the subject email expiring at now + ttl.
func (t *TokenIssuer) Mint(subjectEmail string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectEmail,
		Issuer:    t.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.SecretKey))
}

// Parse validates the token's signature and expiry and returns its subject
// email. Returns ErrTokenExpired when only the expiry failed, ErrTokenInvalid
// for anything else.
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(t.SecretKey), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
